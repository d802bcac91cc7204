// Package scope ties background work to the lifetime of an owner.
//
// A [Scope] launches fire-and-forget tasks on one of two dispatchers and
// cancels all of them when the owner goes away:
//
//	sc := scope.New(ctx, scope.WithLogger(logger))
//	sc.Launch(scope.IO, "insert", func(ctx context.Context) error {
//	    _, err := dao.Insert(ctx, f)
//	    return err
//	})
//	defer sc.Close()
//
// Callers never see task results. A task that fails (returns an error other
// than a cancellation, or panics) is reported to the scope's failure handler,
// which logs by default. Nothing is retried.
//
// # State Machine
//
// Valid state transitions:
//   - Active -> Closing
//   - Closing -> Closed
package scope
