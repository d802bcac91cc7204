// Package domain contains the core entities for forage.
//
// This package is the innermost layer. It has no dependencies on storage,
// logging, or the CLI and holds only the record type and its error values.
//
// # Entities
//
//   - [Forageable]: a foraging spot with a name, an address, a seasonality flag and notes
package domain
