// Package services implements the engine's business logic: the per-tenant
// ingestion and retrieval pipelines and the tenant registry. Services
// depend only on domain types and ports, never on concrete adapters.
package services
