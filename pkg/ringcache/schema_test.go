package ringcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSchemaAssignsSequentialSlotKeys(t *testing.T) {
	s, err := NewSchema([]FieldParam{
		{Name: "status"},
		{Name: "owner", Immutable: true},
		{Name: "lock", LockKey: true},
	})
	require.NoError(t, err)

	k, ok := s.slotKeyFor("status")
	require.True(t, ok)
	require.Equal(t, "1", k)

	k, ok = s.slotKeyFor("lock")
	require.True(t, ok)
	require.Equal(t, "3", k)
	require.Equal(t, "3", s.lockSlotKey)
}

func TestNewSchemaRejectsEmptyName(t *testing.T) {
	_, err := NewSchema([]FieldParam{{Name: ""}})
	require.Error(t, err)
}

func TestNewSchemaRejectsDuplicateName(t *testing.T) {
	_, err := NewSchema([]FieldParam{{Name: "a"}, {Name: "a"}})
	require.Error(t, err)
}

func TestNewSchemaRejectsMultipleLockKeys(t *testing.T) {
	_, err := NewSchema([]FieldParam{
		{Name: "a", LockKey: true},
		{Name: "b", LockKey: true},
	})
	require.Error(t, err)
}

func TestNewSchemaAllowsNoLockKey(t *testing.T) {
	s, err := NewSchema([]FieldParam{{Name: "a"}, {Name: "b"}})
	require.NoError(t, err)
	require.Equal(t, "", s.lockSlotKey)
}

func TestMakeReadableOmitsForeignSlotKeys(t *testing.T) {
	s, err := NewSchema([]FieldParam{{Name: "a"}})
	require.NoError(t, err)

	readable := s.makeReadable(Record{"1": "x", "99": "stale"})
	require.Equal(t, map[string]string{"a": "x"}, readable)
}
