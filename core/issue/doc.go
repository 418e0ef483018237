// Package issue runs the certificate issuance workflow end to end: key and
// CSR generation, order creation at the CA, HTTP challenge publication,
// verification, download, and persistence of the resulting material. The same
// workflow serves both cold-boot issuance and scheduled renewal.
package issue
