// Package types defines the device capability contract, session entity
// types, and standard errors for the sheaf scan session core.
//
// The core never talks to hardware directly: it consumes the Driver and
// Handle interfaces, and one implementation exists per transport or
// vendor. Entities (Page, Document) are plain structs; all structural
// invariants across entities are enforced by the store, not here.
package types
