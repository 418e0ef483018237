//go:build !linux && !darwin

package server

import "net"

// listen binds a plain TCP listener. Without SO_REUSEPORT a renewal swap may
// briefly fail to bind while the old listener still holds the port; the
// lifecycle manager treats that as a bind failure and rolls back.
func listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
