package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderIndependent(t *testing.T) {
	a := New([]string{"Shale", "Sand", "Shale", "Lime"})
	b := New([]string{"Lime", "Sand", "Shale"})

	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, 3, a.Len())
	for _, l := range []string{"Shale", "Sand", "Lime"} {
		assert.Equal(t, a.Color(l), b.Color(l))
	}
}

func TestDistinctColors(t *testing.T) {
	p := New([]string{"A", "B", "C", "D", "E"})
	seen := map[string]bool{}
	for _, l := range []string{"A", "B", "C", "D", "E"} {
		hex := p.Color(l).Hex()
		assert.False(t, seen[hex], "duplicate color %s", hex)
		seen[hex] = true
	}
}

func TestFallback(t *testing.T) {
	p := New([]string{"Sand"})
	assert.Equal(t, "#aaaaaa", p.Color("Granite").Hex())
}

func TestKeyOf(t *testing.T) {
	labels := []string{"b", "a", "b"}
	assert.Equal(t, New(labels).Key(), KeyOf(labels))
	assert.Equal(t, []string{"b", "a"}, Distinct(labels))
}
