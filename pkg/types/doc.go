// Package types defines the Tea entity, the Store interface, configuration,
// and the standard errors shared by every caddy storage backend.
package types
