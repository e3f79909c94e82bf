// Package log holds helpers shared by the Logger adapters in its subpackages.
package log

import (
	"sort"

	"github.com/unkn0wn-root/cacheaside"
)

// SortedKeys returns the field names in lexical order so adapters emit
// fields deterministically.
func SortedKeys(f cacheaside.Fields) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
