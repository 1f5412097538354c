package order

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence returns a rand func replaying the given alphabet indexes.
func sequence(idx ...int) func(int) int {
	i := 0
	return func(int) int {
		v := idx[i%len(idx)]
		i++
		return v
	}
}

func TestIDGenerator_Format(t *testing.T) {
	g := NewIDGenerator("")
	id, err := g.Next(func(string) bool { return false })
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^AUR-[0-9A-Z]{6}$`), id)

	g = NewIDGenerator("TST-")
	id, err = g.Next(func(string) bool { return false })
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^TST-[0-9A-Z]{6}$`), id)
}

func TestIDGenerator_RetriesOnCollision(t *testing.T) {
	g := NewIDGenerator("AUR-")
	// First candidate AUR-000000, second AUR-111111.
	g.rand = sequence(0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1)
	g.Observe("AUR-000000")

	var asked []string
	id, err := g.Next(func(id string) bool {
		asked = append(asked, id)
		return id == "AUR-000000"
	})
	require.NoError(t, err)
	assert.Equal(t, "AUR-111111", id)
	assert.Equal(t, []string{"AUR-000000"}, asked, "unseen candidates skip the exact check")
}

func TestIDGenerator_BloomFalsePositiveFallsThrough(t *testing.T) {
	g := NewIDGenerator("AUR-")
	g.rand = sequence(2)
	g.Observe("AUR-222222")

	// The filter says maybe, the exact check says free: the id is accepted.
	id, err := g.Next(func(string) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, "AUR-222222", id)
}

func TestIDGenerator_Exhausted(t *testing.T) {
	g := NewIDGenerator("AUR-")
	g.rand = sequence(3)
	g.Observe("AUR-333333")

	_, err := g.Next(func(string) bool { return true })
	require.ErrorIs(t, err, ErrIDSpaceExhausted)
}

func TestIDGenerator_RemembersIssuedIDs(t *testing.T) {
	g := NewIDGenerator("AUR-")
	g.rand = sequence(4)

	first, err := g.Next(func(string) bool { return false })
	require.NoError(t, err)

	// The same candidate comes up again; since it was issued, the exact check
	// is consulted.
	consulted := false
	_, err = g.Next(func(id string) bool {
		consulted = true
		return id == first
	})
	require.ErrorIs(t, err, ErrIDSpaceExhausted)
	assert.True(t, consulted)
}
