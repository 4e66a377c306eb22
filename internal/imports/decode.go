package imports

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"path"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/achievesync/pkg/entries"
	"github.com/agentstation/achievesync/pkg/errors"
)

// Stem returns the file name up to its first dot: "quests.json.gz" is "quests".
func Stem(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

// format returns the document format of name, ignoring a trailing .gz.
func format(name string) string {
	name = strings.TrimSuffix(strings.ToLower(name), ".gz")
	switch path.Ext(name) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// toJSON returns the document as JSON, decompressing and converting YAML as needed.
func toJSON(name string, data []byte) ([]byte, error) {
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.WrapParse("gzip", name, err)
		}
		defer func() { _ = zr.Close() }()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, errors.WrapParse("gzip", name, err)
		}
	}

	if format(name) == "yaml" {
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, errors.WrapParse("yaml", name, err)
		}
		return converted, nil
	}
	return data, nil
}

// decodeList parses a document holding a list of entries.
func decodeList(name string, data []byte) (entries.Entries, error) {
	doc, err := toJSON(name, data)
	if err != nil {
		return nil, err
	}
	list, err := entries.Decode(doc)
	if err != nil {
		return nil, errors.WrapParse(format(name), name, err)
	}
	return list, nil
}

// decodeDocument parses an import document. A list yields a single batch
// named after the file; an object maps category names to lists.
func decodeDocument(name string, data []byte) ([]Batch, error) {
	doc, err := toJSON(name, data)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return decodeMassImport(name, trimmed)
	}

	list, err := entries.Decode(trimmed)
	if err != nil {
		return nil, errors.WrapParse(format(name), name, err)
	}
	return []Batch{{Category: Stem(name), Source: path.Base(name), Entries: list}}, nil
}

// decodeMassImport keeps the key order of the document.
func decodeMassImport(name string, doc []byte) ([]Batch, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	if _, err := dec.Token(); err != nil {
		return nil, errors.WrapParse(format(name), name, err)
	}

	var batches []Batch
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.WrapParse(format(name), name, err)
		}
		category, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.WrapParse(format(name), name, err)
		}
		list, err := entries.Decode(raw)
		if err != nil {
			return nil, errors.NewParseError(format(name), name, "category "+category+": "+err.Error(), err)
		}
		batches = append(batches, Batch{
			Category: category,
			Source:   path.Base(name) + "#" + category,
			Entries:  list,
			Mass:     true,
		})
	}
	return batches, nil
}
