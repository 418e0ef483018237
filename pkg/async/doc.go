// Package async runs an error-returning function on its own goroutine and
// hands back a future for the result. It exists for fire-and-forget work
// whose outcome still matters occasionally, such as tests awaiting a
// background delivery.
//
//	future := async.Exec(ctx, payload, deliver)
//
//	// Later, or never:
//	if err := future.Await(); err != nil {
//		log.Printf("delivery failed: %v", err)
//	}
//
// Exec spawns exactly one goroutine per call. Await may be called from any
// number of goroutines; all observe the same error.
package async
