// Package core provides the business logic for turning session exports into invoices.
//
// This package holds all domain logic independent of any UI, transport or
// storage technology. It is used by the web handlers, the CLI and tests without
// modification.
//
// # Pipeline
//
// Data flows one way through pure stages:
//
//	Dataset --Classify--> []FieldInfo           (advisory column types)
//	Dataset --Aggregate--> Summary              (per-column sum/count/avg/min/max)
//	Summary + InvoiceConfig --Calculator--> Invoice
//	Invoice + Dataset --InvoiceStore--> SavedInvoice
//
// Every raw value is read through [ParseCell], which separates empty, numeric
// and text cells. Empty and text cells never contribute to statistics.
//
// # Collaborators
//
// The package defines the ports it needs and leaves implementations to other
// packages:
//
//   - [RecordRepository]: durable storage for saved invoices
//   - [AuditLog]: the audit trail of mutations
//   - [Renderer]: document generation (PDF)
//   - [Clock]: time source for ids, timestamps and the recent filter
//
// # Service
//
// [Service] ties the stages together for the front ends: it stages uploaded
// datasets, validates configuration, renders, saves, lists, deletes and backs
// up invoices, recording an audit entry for each mutation.
//
// # Error Handling
//
// Failures are reported with sentinel errors ([ErrInvalidDataset],
// [ErrInvalidConfiguration], [ErrDocumentGeneration], [ErrMalformedBackup],
// ...) wrapped with context. [MapError] turns any of them into a
// [UserMessage] with a support code.
package core
