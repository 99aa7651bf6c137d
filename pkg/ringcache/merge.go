package ringcache

// emptyValueSentinel is the "unset" marker: an incoming field carrying
// this value is treated as if it were not supplied at all (§4.3).
const emptyValueSentinel = ""

// merge combines current (a possibly-empty internal record) with
// incoming fields, per the lock/immutable/mutable policy:
//
//   - fields not present in the schema are skipped
//   - the empty-string sentinel means "unset" and is skipped
//   - a slot that is currently empty always accepts the first write
//   - otherwise a slot is overwritten only if its field is not
//     immutable, and either the record is unlocked or the field is
//     explicitly mutable
//
// locked is snapshotted once, before the loop, from current's state at
// call entry — a field written earlier in this same call that happens
// to be the lock field does not itself lock the rest of this call's
// writes (spec.md §9, preserved exactly as an intentional per-call
// snapshot).
func (s *Schema) merge(current Record, incoming map[string]string) Record {
	if current == nil {
		current = Record{}
	}

	_, locked := current[s.lockSlotKey]
	if s.lockSlotKey == "" {
		locked = false
	}

	for name, value := range incoming {
		slotKey, ok := s.slotKeyFor(name)
		if !ok {
			continue
		}
		if value == emptyValueSentinel {
			continue
		}

		_, occupied := current[slotKey]
		if !occupied {
			current[slotKey] = value
			continue
		}

		if s.isImmutable(name) {
			continue
		}
		if !locked || s.isMutable(name) {
			current[slotKey] = value
		}
	}

	return current
}
