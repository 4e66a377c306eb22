// Package entries defines the achievement entry record shared by the store,
// the reconciler and the uploader.
//
// Only three fields are inspected: id, name and added. Every other field of a
// record, and an inspected field holding a value of the wrong type, is kept
// as raw JSON and written back unchanged, in its original key order.
package entries

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

const (
	fieldID    = "id"
	fieldName  = "name"
	fieldAdded = "added"
)

// Entry is one achievement record.
type Entry struct {
	// ID identifies the entry within its category. Nil when the record has no id.
	ID *int64

	// Name is the display name, matched case-insensitively. Nil when absent.
	Name *string

	// Added is true once the tracker confirmed receipt.
	Added bool

	// Extra holds every field besides id, name and added, verbatim. An id,
	// name or added value of the wrong type is kept here too, and the field
	// counts as absent.
	Extra map[string]json.RawMessage

	// order is the key order observed when decoding.
	order []string
}

// New returns an entry with the given id and name. It is a shorthand for
// fixtures: zero values mean absent, so an id of 0 or an empty name leaves the
// field nil. Set ID directly for an entry whose id is 0.
func New(id int64, name string) *Entry {
	e := &Entry{}
	if id != 0 {
		e.ID = &id
	}
	if name != "" {
		e.Name = &name
	}
	return e
}

// HasID reports whether the entry carries an id.
func (e *Entry) HasID() bool { return e != nil && e.ID != nil }

// HasName reports whether the entry carries a name.
func (e *Entry) HasName() bool { return e != nil && e.Name != nil }

// Malformed reports whether the id or name holds a value of the wrong type.
// Such a record is present but cannot refer to any other entry.
func (e *Entry) Malformed() bool {
	if e == nil {
		return false
	}
	_, id := e.Extra[fieldID]
	_, name := e.Extra[fieldName]
	return id || name
}

// Key renders the id the way the tracker expects it in a request path.
// It returns an empty string for entries without an id.
func (e *Entry) Key() string {
	if !e.HasID() {
		return ""
	}
	return strconv.FormatInt(*e.ID, 10)
}

// Label renders a short human readable label for logs and tables.
func (e *Entry) Label() string {
	switch {
	case e.HasID() && e.HasName():
		return fmt.Sprintf("%d (%s)", *e.ID, *e.Name)
	case e.HasID():
		return e.Key()
	case e.HasName():
		return fmt.Sprintf("%q", *e.Name)
	default:
		return "<anonymous>"
	}
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := &Entry{Added: e.Added}
	if e.ID != nil {
		id := *e.ID
		c.ID = &id
	}
	if e.Name != nil {
		name := *e.Name
		c.Name = &name
	}
	if e.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(e.Extra))
		for k, v := range e.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	if e.order != nil {
		c.order = append([]string(nil), e.order...)
	}
	return c
}

// Equal reports whether two entries hold the same values. Key order is
// ignored and extra fields are compared after compaction.
func (e *Entry) Equal(o *Entry) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.Added != o.Added || !equalPtr(e.ID, o.ID) || !equalPtr(e.Name, o.Name) {
		return false
	}
	if len(e.Extra) != len(o.Extra) {
		return false
	}
	for k, v := range e.Extra {
		w, ok := o.Extra[k]
		if !ok || !equalRaw(v, w) {
			return false
		}
	}
	return true
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalRaw(a, b json.RawMessage) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

// UnmarshalJSON decodes a JSON object, keeping unknown fields and key order.
func (e *Entry) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("entry must be a JSON object, got %s", bytes.TrimSpace(data))
	}

	*e = Entry{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		if !slices.Contains(e.order, key) {
			e.order = append(e.order, key)
		}

		var ok bool
		switch key {
		case fieldID:
			ok = e.decodeID(raw)
		case fieldName:
			ok = e.decodeName(raw)
		case fieldAdded:
			ok = e.decodeAdded(raw)
		}
		if ok {
			e.keep(key, nil)
		} else {
			e.keep(key, raw)
		}
	}

	_, err = dec.Token()
	return err
}

// decodeID reports false when raw is neither an integer nor null.
func (e *Entry) decodeID(raw json.RawMessage) bool {
	e.ID = nil
	if isNull(raw) {
		return true
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`)) {
		return false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return false
	}
	id, err := n.Int64()
	if err != nil {
		return false
	}
	e.ID = &id
	return true
}

// decodeName reports false when raw is neither a string nor null.
func (e *Entry) decodeName(raw json.RawMessage) bool {
	e.Name = nil
	if isNull(raw) {
		return true
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return false
	}
	e.Name = &name
	return true
}

// decodeAdded reports false when raw is neither a boolean nor null.
func (e *Entry) decodeAdded(raw json.RawMessage) bool {
	e.Added = false
	if isNull(raw) {
		return true
	}
	return json.Unmarshal(raw, &e.Added) == nil
}

// keep stores raw under key in Extra, or removes key when raw is nil.
func (e *Entry) keep(key string, raw json.RawMessage) {
	if raw == nil {
		delete(e.Extra, key)
		return
	}
	if e.Extra == nil {
		e.Extra = make(map[string]json.RawMessage)
	}
	e.Extra[key] = raw
}

// MarshalJSON encodes the entry as a JSON object. Keys seen while decoding
// keep their position; id, name and added are appended when they were absent,
// with null for a missing id or name.
func (e Entry) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(e.order)+3)
	for _, k := range e.order {
		if isInspected(k) {
			keys = append(keys, k)
			continue
		}
		if _, ok := e.Extra[k]; ok {
			keys = append(keys, k)
		}
	}
	for _, k := range []string{fieldID, fieldName, fieldAdded} {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	extra := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		extra = append(extra, k)
	}
	slices.Sort(extra)
	for _, k := range extra {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := encode(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')

		var value []byte
		switch k {
		case fieldID:
			value = e.raw(k, "null")
			if e.ID != nil {
				value = []byte(strconv.FormatInt(*e.ID, 10))
			}
		case fieldName:
			value = e.raw(k, "null")
			if e.Name != nil {
				if value, err = encode(*e.Name); err != nil {
					return nil, err
				}
			}
		case fieldAdded:
			value = e.raw(k, "false")
			if e.Added {
				value = []byte("true")
			}
		default:
			value = e.Extra[k]
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// raw returns the verbatim value kept for an inspected key, or fallback.
func (e *Entry) raw(key, fallback string) []byte {
	if v, ok := e.Extra[key]; ok {
		return v
	}
	return []byte(fallback)
}

// encode marshals v without HTML escaping so names like "Q&A" stay readable.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isInspected(key string) bool {
	return key == fieldID || key == fieldName || key == fieldAdded
}
