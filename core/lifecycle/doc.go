// Package lifecycle owns the two HTTPS listeners, "main" and "second". Each
// role holds exactly zero or one live listener. Renewal swaps construct and
// confirm a replacement listener before the old one is drained, and roll back
// to the old listener when the replacement fails to bind, so a role is never
// left without a live listener by a failed renewal.
package lifecycle
