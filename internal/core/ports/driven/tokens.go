package driven

// TokenCounter estimates the token count of a text for corpus statistics.
type TokenCounter interface {
	// Count returns the number of tokens in text.
	Count(text string) int
}
