// Package proxy forwards application traffic under /server/ to the backend
// origin. Certificate handling stays in this process; everything the backend
// owns passes through untouched.
package proxy
