// Package viewmodel bridges UI code and the forageable DAO.
//
// [ForageableViewModel] exposes live reads that follow the database and
// fire-and-forget writes that run on the IO dispatcher of the view model's
// scope. Write failures are not returned to the caller; they reach the
// scope's failure handler. Callers are expected to run [ForageableViewModel.IsValidEntry]
// before adding or updating.
//
//	vm := viewmodel.New(dao, viewmodel.WithLogger(logger))
//	defer vm.Close()
//
//	if vm.IsValidEntry(name, address) {
//	    vm.AddForageable(name, address, inSeason, notes)
//	}
//
// A [Factory] builds view models for generic provisioning code, and a
// [Store] keeps one instance per key until it is cleared.
package viewmodel
