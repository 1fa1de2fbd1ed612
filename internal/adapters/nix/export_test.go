package nix

import "time"

// NixHubResponse exports nixHubResponse for testing.
type NixHubResponse = nixHubResponse

// SystemFor exports systemFor for testing.
var SystemFor = systemFor

// NixString exports nixString for testing.
var NixString = nixString

// SetNow replaces the clock of an Index for testing.
func (i *Index) SetNow(now func() time.Time) {
	i.now = now
}

// SetNow replaces the clock of a Builder for testing.
func (b *Builder) SetNow(now func() time.Time) {
	b.now = now
}
