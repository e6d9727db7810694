package room

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	reg := NewRegistry()

	rm := reg.GetOrCreate("AB24CD")
	require.NotNil(t, rm)
	assert.Equal(t, "AB24CD", rm.Code)
	assert.Empty(t, rm.HostID)
	assert.Empty(t, rm.Participants)

	// Same code always yields the same room object.
	again := reg.GetOrCreate("AB24CD")
	assert.Same(t, rm, again)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_SnapshotMissingRoom(t *testing.T) {
	reg := NewRegistry()

	snap, ok := reg.Snapshot("NOPE99")
	assert.False(t, ok)
	assert.Empty(t, snap.Participants)
}

func TestRegistry_SnapshotOrdering(t *testing.T) {
	reg := NewRegistry()
	rm := reg.GetOrCreate("AB24CD")

	rm.Participants["c"] = &Participant{ID: "c", Name: "Cleo", Role: RoleViewer, JoinedAt: 30}
	rm.Participants["a"] = &Participant{ID: "a", Name: "Ana", Role: RoleHost, JoinedAt: 10}
	rm.Participants["b"] = &Participant{ID: "b", Name: "Bo", Role: RoleViewer, JoinedAt: 20}
	rm.HostID = "a"

	snap, ok := reg.Snapshot("AB24CD")
	require.True(t, ok)
	assert.Equal(t, "a", snap.HostID)

	require.Len(t, snap.Participants, 3)
	ids := []string{snap.Participants[0].ID, snap.Participants[1].ID, snap.Participants[2].ID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	// No duplicates regardless of how often someone rejoined.
	seen := make(map[string]bool)
	for _, p := range snap.Participants {
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
	}
}

func TestRegistry_RemoveDestroysEmptyRoom(t *testing.T) {
	reg := NewRegistry()
	rm := reg.GetOrCreate("AB24CD")
	rm.Participants["a"] = &Participant{ID: "a", JoinedAt: 1}
	rm.Participants["b"] = &Participant{ID: "b", JoinedAt: 2}

	reg.Remove("AB24CD", "a")
	assert.True(t, reg.Has("AB24CD"))

	reg.Remove("AB24CD", "b")
	assert.False(t, reg.Has("AB24CD"), "room must be destroyed when the last participant leaves")

	// Removing from a destroyed room is a no-op.
	reg.Remove("AB24CD", "b")

	// The code is reusable afterwards: a fresh, empty room.
	fresh := reg.GetOrCreate("AB24CD")
	assert.Empty(t, fresh.Participants)
}

func TestRegistry_GenerateCodeUnique(t *testing.T) {
	reg := NewRegistry()

	for i := 0; i < 200; i++ {
		code := reg.GenerateCode()
		require.Len(t, code, CodeLength)
		assert.False(t, reg.Has(code), "generated code %q collides with a live room", code)
		rm := reg.GetOrCreate(code)
		rm.Participants[fmt.Sprintf("p%d", i)] = &Participant{ID: fmt.Sprintf("p%d", i)}
	}
	assert.Equal(t, 200, reg.Len())
}
