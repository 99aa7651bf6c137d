package ringcache

import (
	"fmt"
	"strconv"
)

// FieldParam describes one field of the record, as supplied by the
// caller to New. Slot-keys are assigned in list order, so param order
// is significant and must stay stable across process restarts for a
// given deployment (spec.md §4.1).
type FieldParam struct {
	// Name is the human-facing field name.
	Name string
	// Immutable fields can never be overwritten once they hold a value.
	Immutable bool
	// Mutable fields may be overwritten even while the record is locked.
	Mutable bool
	// LockKey marks the single field whose presence locks the record.
	// At most one field in the whole schema may set this.
	LockKey bool
}

// Schema is the compiled, immutable field set a Ring is built from.
// Nothing mutates a Schema after NewSchema returns.
type Schema struct {
	params []FieldParam

	storageMap    map[string]string // human name -> slot-key
	readableMap   map[string]string // slot-key -> human name
	immutableSet  map[string]struct{}
	mutableSet    map[string]struct{}
	lockSlotKey   string // "" if no lock field
}

// NewSchema compiles an ordered parameter list into slot-keys and
// classification sets. Returns an error if more than one field sets
// LockKey, or if two fields share a name.
func NewSchema(params []FieldParam) (*Schema, error) {
	s := &Schema{
		params:       params,
		storageMap:   make(map[string]string, len(params)),
		readableMap:  make(map[string]string, len(params)),
		immutableSet: make(map[string]struct{}),
		mutableSet:   make(map[string]struct{}),
	}

	for i, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("ringcache: field %d has an empty name", i)
		}
		if _, exists := s.storageMap[p.Name]; exists {
			return nil, fmt.Errorf("ringcache: duplicate field name %q", p.Name)
		}

		slotKey := strconv.Itoa(i + 1)
		s.storageMap[p.Name] = slotKey
		s.readableMap[slotKey] = p.Name

		if p.Immutable {
			s.immutableSet[p.Name] = struct{}{}
		}
		if p.Mutable {
			s.mutableSet[p.Name] = struct{}{}
		}
		if p.LockKey {
			if s.lockSlotKey != "" {
				return nil, fmt.Errorf("ringcache: more than one field marked LockKey (%q and %q)", s.readableMap[s.lockSlotKey], p.Name)
			}
			s.lockSlotKey = slotKey
		}
	}

	return s, nil
}

// slotKeyFor returns the compact slot-key for a human field name, and
// whether the name exists in the schema.
func (s *Schema) slotKeyFor(name string) (string, bool) {
	k, ok := s.storageMap[name]
	return k, ok
}

// isImmutable reports whether name was declared Immutable.
func (s *Schema) isImmutable(name string) bool {
	_, ok := s.immutableSet[name]
	return ok
}

// isMutable reports whether name was declared Mutable.
func (s *Schema) isMutable(name string) bool {
	_, ok := s.mutableSet[name]
	return ok
}

// emptyRecord returns a canonical empty record: a fresh map with no
// entries. An empty record is distinct from an absent slot (the
// absent/empty distinction spec.md's Design Notes requires) because
// callers distinguish "no slot at this position" (absent from the
// store) from "slot holds a record with zero fields" (an empty map
// that still encodes and round-trips).
func (s *Schema) emptyRecord() Record {
	return Record{}
}
