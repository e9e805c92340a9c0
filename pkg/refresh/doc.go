// Package refresh keeps the displayed one-time codes of a changing item set
// current.
//
// A Scheduler owns one timer per distinct expiry instant. Items whose codes
// expire together share that timer, so a screen of items that all use the
// default 30 second period wakes up once per period and delivers a single
// batch of updates:
//
//	s, err := refresh.NewScheduler(func(updates []refresh.Update) {
//		for _, u := range updates {
//			render(u.ID, u.Code.Code)
//		}
//	})
//	if err != nil {
//		return err
//	}
//	defer s.Cleanup()
//
//	initial := s.Configure(items)
//
// Configure is called again whenever the visible set changes. Items that are
// no longer present lose their pending wake-up; new items are scheduled at the
// expiry of their current code. Codes are always computed from the clock, so a
// timer that fires late still produces the correct code.
package refresh
