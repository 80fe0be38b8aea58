// Package codec encodes snapshot payloads.
//
// Persisted envelopes record the codec name, so a payload written with one
// codec is always decoded with the same one. Changing Default only affects
// new snapshots.
package codec

import (
	"fmt"
	"slices"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

var builtin = map[string]Codec{
	JSON{}.Name():   JSON{},
	GoJSON{}.Name(): GoJSON{},
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	c, ok := builtin[name]
	return c, ok
}

// Names lists the built-in codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// MustMarshal is a helper for tests and benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
