package plugin

import (
	"crypto/sha1"
	"strings"

	"github.com/juju/errors"
)

// Info contains plugin metadata
type Info struct {
	ID       string // Unique plugin identifier (e.g., "com.example.myplugin")
	Name     string // Display name
	Version  string // Semantic version (e.g., "1.0.0")
	Vendor   string // Company/developer name
	Category string // Plugin category (e.g., "Fx", "Instrument")
}

// UID derives a stable 16-byte class identifier from the string ID.
func (i Info) UID() [16]byte {
	var uid [16]byte
	sum := sha1.Sum([]byte(i.ID))
	copy(uid[:], sum[:16])
	return uid
}

// ValidateUID checks that the ID can produce a usable class identifier.
func (i Info) ValidateUID() error {
	id := strings.TrimSpace(i.ID)
	if id == "" {
		return errors.NotValidf("empty plugin ID")
	}
	if id != i.ID {
		return errors.NotValidf("plugin ID %q with surrounding space", i.ID)
	}
	return nil
}
