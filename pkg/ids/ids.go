// Package ids generates collision-resistant, time-sortable record ids of the
// form "<prefix>_<ulid>".
package ids

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

func New(prefix string) string {
	return prefix + "_" + ulid.Make().String()
}

// HasPrefix reports whether id was generated with prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"_")
}
