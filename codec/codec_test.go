package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range Names() {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	assert.Equal(t, []string{"go-json", "json"}, Names())

	_, ok := ByName("gob")
	assert.False(t, ok)
}

func TestCodecs_Interchangeable(t *testing.T) {
	type payload struct {
		Keys   []string  `json:"keys"`
		Values []float64 `json:"values"`
	}
	in := payload{Keys: []string{"u1", "u2"}, Values: []float64{0.5, -1.25}}

	data := MustMarshal(JSON{}, in)
	assert.Equal(t, data, MustMarshal(GoJSON{}, in))

	var out payload
	require.NoError(t, GoJSON{}.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	assert.Equal(t, data, MustMarshal(nil, in))
}
