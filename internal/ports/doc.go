// Package ports defines the interfaces that connect the forage core to its
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [ForageableDAO]: observable reads and unit-of-work writes over stored records
//
// The view model (pkg/viewmodel) depends only on this interface and pkg/log. The SQLite
// adapter (internal/adapters/sqlite) implements [ForageableDAO]; tests use
// hand-written fakes.
package ports
