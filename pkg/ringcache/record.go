package ringcache

// Record is the internal, compact representation of a stored value:
// slot-key (a small decimal string) to field value. A Record with zero
// entries is the canonical "empty" record; it is distinct from no
// record at all (an absent slot). It is marshaled as a plain JSON
// object wherever it is embedded (see slotEntry in ring.go), so an
// empty record still round-trips to "{}" rather than vanishing.
type Record map[string]string

// makeReadable inverts the slot-key mapping, producing a mapping keyed
// by human names and omitting absent fields (§4.3).
func (s *Schema) makeReadable(r Record) map[string]string {
	out := make(map[string]string, len(r))
	for slotKey, value := range r {
		name, ok := s.readableMap[slotKey]
		if !ok {
			continue // foreign slot-key, e.g. from a since-shrunk schema
		}
		out[name] = value
	}
	return out
}
