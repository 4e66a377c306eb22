package entries_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/achievesync/pkg/entries"
)

func TestDecodeDefaultsMissingFields(t *testing.T) {
	list, err := entries.Decode([]byte(`[{"id": 7}, {"name": "Bronze"}, null, {}]`))
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, int64(7), *list[0].ID)
	assert.Nil(t, list[0].Name)
	assert.False(t, list[0].Added)

	assert.Nil(t, list[1].ID)
	assert.Equal(t, "Bronze", *list[1].Name)

	assert.False(t, list[2].HasID())
	assert.False(t, list[2].HasName())
}

func TestUnknownFieldsRoundTrip(t *testing.T) {
	input := `{"icon":"a.png","id":12,"meta":{"patch":"6.1","tags":["x","y"]},"name":"Q&A","added":true}`

	var e entries.Entry
	require.NoError(t, json.Unmarshal([]byte(input), &e))

	assert.Equal(t, int64(12), *e.ID)
	assert.Equal(t, "Q&A", *e.Name)
	assert.True(t, e.Added)
	assert.Len(t, e.Extra, 2)

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestMarshalKeepsKeyOrderAndAppendsDefaults(t *testing.T) {
	var e entries.Entry
	require.NoError(t, json.Unmarshal([]byte(`{"zeta":1,"name":"A","alpha":2}`), &e))

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"name":"A","alpha":2,"id":null,"added":false}`, string(out))
}

func TestMarshalDoesNotEscapeHTML(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(entries.New(1, "<Rock & Roll>")))
	assert.Contains(t, buf.String(), `"<Rock & Roll>"`)
}

func TestUnmarshalRejectsNonObjects(t *testing.T) {
	var e entries.Entry
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &e))
}

func TestUnmarshalKeepsMistypedFieldsVerbatim(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		malformed bool
	}{
		{"string id", `{"id":"12","name":"A","added":false}`, true},
		{"fractional id", `{"id":1.5,"name":"A","added":false}`, true},
		{"numeric name", `{"id":1,"name":3,"added":false}`, true},
		{"string added", `{"id":1,"name":"A","added":"yes"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e entries.Entry
			require.NoError(t, json.Unmarshal([]byte(tt.input), &e))
			assert.Equal(t, tt.malformed, e.Malformed())
			assert.False(t, e.Added)

			out, err := json.Marshal(e)
			require.NoError(t, err)
			assert.Equal(t, tt.input, string(out))
		})
	}
}

func TestMistypedFieldIsReplacedByLaterValue(t *testing.T) {
	var e entries.Entry
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"added":"yes"}`), &e))

	e.Added = true
	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"added":true,"name":null}`, string(out))

	list, err := entries.Decode([]byte(`[{"id":"x"},{"id":2}]`))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].HasID())
	assert.Equal(t, "2", list[1].Key())
}

func TestZeroIDIsAnID(t *testing.T) {
	var e entries.Entry
	require.NoError(t, json.Unmarshal([]byte(`{"id":0}`), &e))
	assert.True(t, e.HasID())
	assert.Equal(t, "0", e.Key())

	assert.False(t, entries.New(0, "A").HasID(), "New treats 0 as absent")
}

func TestKeyAndLabel(t *testing.T) {
	assert.Equal(t, "42", entries.New(42, "").Key())
	assert.Equal(t, "", entries.New(0, "Only a name").Key())

	assert.Equal(t, "42 (Answer)", entries.New(42, "Answer").Label())
	assert.Equal(t, "42", entries.New(42, "").Label())
	assert.Equal(t, `"Answer"`, entries.New(0, "Answer").Label())
	assert.Equal(t, "<anonymous>", (&entries.Entry{}).Label())
}

func TestEqualIgnoresKeyOrder(t *testing.T) {
	var a, b entries.Entry
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"name":"A","x":{"k": 1}}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"x":{"k":1},"name":"A","id":1}`), &b))
	assert.True(t, a.Equal(&b))

	b.Added = true
	assert.False(t, a.Equal(&b))
	assert.False(t, a.Equal(nil))
}

func TestCloneIsDeep(t *testing.T) {
	var e entries.Entry
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"name":"A","x":[1]}`), &e))

	c := e.Clone()
	*c.ID = 2
	c.Extra["x"][1] = '9'

	assert.Equal(t, int64(1), *e.ID)
	assert.Equal(t, `[1]`, string(e.Extra["x"]))
}

func TestEntriesHelpers(t *testing.T) {
	list := entries.Entries{entries.New(3, "C"), entries.New(0, "nameless"), entries.New(1, "A")}
	list[2].Added = true

	assert.Equal(t, []string{"3", "1"}, list.Keys())
	assert.Equal(t, "3,1", list.Join())
	assert.Equal(t, 1, list.CountAdded())
	assert.Equal(t, 2, list.IndexByID(1))
	assert.Equal(t, -1, list.IndexByID(99))
}
