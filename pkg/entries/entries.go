package entries

import (
	"encoding/json"
	"strings"
)

// Entries is an ordered sequence of entries, the in-memory form of a category.
// Elements are pointers so that callers can share and mutate stored records.
type Entries []*Entry

// Decode parses a JSON array of entries and normalizes it.
func Decode(data []byte) (Entries, error) {
	var list Entries
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return Normalize(list), nil
}

// Normalize default-fills the inspected fields and drops null elements.
// Decoding already leaves a missing id or name nil and a missing added flag
// false, so only nil elements need removing.
func Normalize(list Entries) Entries {
	out := make(Entries, 0, len(list))
	for _, e := range list {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Keys returns the remote keys of the entries that carry an id, in order.
func (list Entries) Keys() []string {
	keys := make([]string, 0, len(list))
	for _, e := range list {
		if e.HasID() {
			keys = append(keys, e.Key())
		}
	}
	return keys
}

// Join renders the remote keys as a comma separated list.
func (list Entries) Join() string {
	return strings.Join(list.Keys(), ",")
}

// CountAdded returns how many entries are marked added.
func (list Entries) CountAdded() int {
	n := 0
	for _, e := range list {
		if e.Added {
			n++
		}
	}
	return n
}

// Clone deep copies every entry.
func (list Entries) Clone() Entries {
	if list == nil {
		return nil
	}
	out := make(Entries, len(list))
	for i, e := range list {
		out[i] = e.Clone()
	}
	return out
}

// IndexByID returns the position of the first entry with the given id, or -1.
func (list Entries) IndexByID(id int64) int {
	for i, e := range list {
		if e.HasID() && *e.ID == id {
			return i
		}
	}
	return -1
}
