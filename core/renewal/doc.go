// Package renewal decides when the stored certificate must be reissued and
// drives the periodic renew-and-swap cycle. A certificate is renewed when it
// is missing, unreadable, or inside the expiry threshold; a fresh issuance is
// then swapped onto both listeners without dropping in-flight connections.
package renewal
