// Package records implements the domain repositories on top of the
// persistence gateway.
package records
