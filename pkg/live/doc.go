// Package live turns DAO streams into observable values bound to a scope.
//
// A [Data] collects its source [Stream] only while someone is watching. The
// first observer starts collection; when the last one leaves, collection
// stops after a short linger so that a quick re-subscribe does not re-run the
// query. Observers that arrive late get the latest value straight away.
//
//	all := live.FromStream(sc, dao.ObserveAll)
//	stop := all.Observe(ctx, func(items []domain.Forageable) {
//	    render(items)
//	})
//	defer stop()
package live
