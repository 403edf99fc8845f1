// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// The service package implements the application layer: it validates and
// persists generation requests on behalf of the API layer, enforces the
// queued-only cancellation rule through the domain transitions, and derives
// per-world status aggregates. Execution of admitted jobs lives in
// internal/scheduler, never here.
//
// Key components:
//
// 1. Service Interfaces:
//   - Define application-specific operations available to the delivery mechanisms
//   - JobService covers submission, inspection, cancellation, and status
//
// 2. Dependency Management:
//   - Services receive dependencies through constructor injection
//   - Core dependencies are the job store and a structured logger
//
// 3. Error Handling:
//   - Translate store and domain errors to application-level errors
//   - Sentinel errors (ErrJobNotFound, domain.ErrInvalidTransition) pass
//     through unchanged so the API layer can map them to status codes
//
// The service layer depends on domain entities and repository interfaces
// (from store), but never on specific infrastructure implementations.
package service
