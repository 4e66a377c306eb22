// Package imports reads category catalogs and import files.
//
// A catalog directory holds one document per category, named after it. An
// import directory holds documents that are either a list of entries for the
// category named by the file, or an object mapping category names to lists
// (a mass import). Documents are JSON or YAML, optionally gzip-compressed.
package imports

import (
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/agentstation/achievesync/pkg/entries"
	"github.com/agentstation/achievesync/pkg/errors"
	"github.com/agentstation/achievesync/pkg/logging"
)

// Batch is a group of imported entries for one category.
type Batch struct {
	Category string
	Source   string // file name, with "#category" for mass imports
	Entries  entries.Entries
	Mass     bool
}

// Result is the content of an import directory.
type Result struct {
	Batches     []Batch
	Unsupported []string // sources naming no known category
	Invalid     []string // files that could not be parsed
}

// Catalog reads category definitions.
type Catalog struct {
	fsys fs.FS
}

// NewCatalog returns a catalog reading from dir.
func NewCatalog(dir string) *Catalog {
	return &Catalog{fsys: os.DirFS(dir)}
}

// NewCatalogFS returns a catalog reading from fsys.
func NewCatalogFS(fsys fs.FS) *Catalog {
	return &Catalog{fsys: fsys}
}

// Categories returns the sorted names of all catalog documents.
func (c *Catalog) Categories() ([]string, error) {
	names, err := list(c.fsys, isCatalogFile)
	if err != nil {
		return nil, err
	}
	var categories []string
	for _, name := range names {
		if category := Stem(name); !slices.Contains(categories, category) {
			categories = append(categories, category)
		}
	}
	slices.Sort(categories)
	return categories, nil
}

// Entries reads and normalizes the catalog of category.
func (c *Catalog) Entries(category string) (entries.Entries, error) {
	names, err := list(c.fsys, isCatalogFile)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if Stem(name) != category {
			continue
		}
		data, err := fs.ReadFile(c.fsys, name)
		if err != nil {
			return nil, errors.WrapIO("read", name, err)
		}
		return decodeList(name, data)
	}
	return nil, errors.NewNotFoundError("catalog", category)
}

// Importer reads the import directory.
type Importer struct {
	fsys fs.FS
}

// NewImporter returns an importer reading from dir.
func NewImporter(dir string) *Importer {
	return &Importer{fsys: os.DirFS(dir)}
}

// NewImporterFS returns an importer reading from fsys.
func NewImporterFS(fsys fs.FS) *Importer {
	return &Importer{fsys: fsys}
}

// Files returns the sorted names of the import documents.
func (im *Importer) Files() ([]string, error) {
	return list(im.fsys, isImportFile)
}

// Read parses one import document.
func (im *Importer) Read(name string) ([]Batch, error) {
	data, err := fs.ReadFile(im.fsys, name)
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	return decodeDocument(name, data)
}

// Load reads every import document and sorts its batches by whether known
// names the category. Unknown categories and unparsable files are logged
// and reported in the result, never dropped silently.
func (im *Importer) Load(known func(category string) bool) (*Result, error) {
	files, err := im.Files()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, name := range files {
		batches, err := im.Read(name)
		if err != nil {
			if errors.IsIOError(err) {
				return nil, err
			}
			logging.Warn().Err(err).Str("file", name).Msg("Skipping unreadable import file")
			res.Invalid = append(res.Invalid, name)
			continue
		}

		for _, b := range batches {
			if !known(b.Category) {
				msg := "Category not found, import file skipped"
				if b.Mass {
					msg = "Category not found, mass import entry skipped"
				}
				logging.Warn().Str("source", b.Source).Str("category", b.Category).Msg(msg)
				res.Unsupported = append(res.Unsupported, b.Source)
				continue
			}
			res.Batches = append(res.Batches, b)
		}
	}
	return res, nil
}

// list returns the sorted names of regular files in the root of fsys that match.
func list(fsys fs.FS, match func(name string) bool) ([]string, error) {
	items, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.WrapIO("read", ".", err)
	}

	var names []string
	for _, item := range items {
		if item.IsDir() || strings.HasPrefix(item.Name(), ".") || !match(item.Name()) {
			continue
		}
		names = append(names, item.Name())
	}
	slices.Sort(names)
	return names, nil
}

func isCatalogFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func isImportFile(name string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, ".json") {
		return true
	}
	lower = strings.TrimSuffix(lower, ".gz")
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
