// Package store persists the categories of one owner as gzip-compressed,
// pretty-printed JSON files, one file per category:
//
//	<root>/<owner>/<category>.json.gz
//
// Saving into an existing file merges by id: stored entries whose id matches
// an incoming entry are replaced in place, everything else is kept, and
// incoming entries without a stored counterpart are dropped. New records only
// enter a store through Initialize.
package store

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/achievesync/pkg/constants"
	"github.com/agentstation/achievesync/pkg/entries"
	"github.com/agentstation/achievesync/pkg/errors"
	"github.com/agentstation/achievesync/pkg/logging"
)

// CatalogSource provides the full default entry list of a category.
type CatalogSource interface {
	Entries(category string) (entries.Entries, error)
}

// LoadResult describes the outcome of a load.
type LoadResult struct {
	Entries entries.Entries
	Path    string

	// ColdStart is set when no file exists yet for the category.
	ColdStart bool

	// Corrupt is set when the file exists but could not be decompressed or parsed.
	Corrupt bool
}

// Store reads and writes category files below a root directory.
type Store struct {
	root   string
	level  int
	logger *zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCompressionLevel sets the gzip level used for writes.
func WithCompressionLevel(level int) Option {
	return func(s *Store) {
		s.level = level
	}
}

// WithLogger sets the logger used for cold start and corruption reports.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store rooted at root.
func New(root string, opts ...Option) *Store {
	s := &Store{
		root:  root,
		level: gzip.BestCompression,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the file that holds category for owner.
func (s *Store) Path(category, owner string) string {
	return filepath.Join(s.root, owner, category+constants.StoreFileExtension)
}

// Exists reports whether a file exists for the category.
func (s *Store) Exists(category, owner string) bool {
	info, err := os.Stat(s.Path(category, owner))
	return err == nil && info.Mode().IsRegular()
}

// Load returns the stored entries of a category. A missing or corrupt file
// yields an empty list and no error; only real I/O failures are returned.
func (s *Store) Load(category, owner string) (entries.Entries, error) {
	res, err := s.LoadDetailed(category, owner)
	if err != nil {
		return nil, err
	}
	return res.Entries, nil
}

// LoadDetailed is Load with the cold start and corruption conditions reported.
func (s *Store) LoadDetailed(category, owner string) (*LoadResult, error) {
	if err := validate(category, owner); err != nil {
		return nil, err
	}

	path := s.Path(category, owner)
	res := &LoadResult{Entries: entries.Entries{}, Path: path}
	log := s.log().With().Str("owner", owner).Str("category", category).Logger()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", path).Msg("No stored data yet, starting empty")
			res.ColdStart = true
			return res, nil
		}
		return nil, errors.WrapIO("read", path, err)
	}
	defer func() { _ = f.Close() }()

	list, err := decode(f, path)
	if err != nil {
		if errors.IsIOError(err) {
			return nil, err
		}
		log.Warn().Err(err).Str("path", path).Msg("Stored data is corrupt, starting empty")
		res.Corrupt = true
		return res, nil
	}

	res.Entries = list
	return res, nil
}

// Save writes entries for a category. Without an existing file the entries
// are written as given. With one, they are merged into the stored list by id
// and the full merged list is rewritten.
func (s *Store) Save(category, owner string, list entries.Entries) error {
	if err := validate(category, owner); err != nil {
		return err
	}

	current, err := s.LoadDetailed(category, owner)
	if err != nil {
		return err
	}

	path := current.Path
	switch {
	case current.ColdStart:
		return s.write(path, dedupe(entries.Normalize(list)))
	case current.Corrupt:
		backup := path + ".corrupt"
		if err := os.Rename(path, backup); err != nil {
			return errors.WrapIO("rename", path, err)
		}
		s.log().Warn().
			Str("owner", owner).
			Str("category", category).
			Str("backup", backup).
			Msg("Replaced corrupt store file, previous content kept as backup")
		return s.write(path, dedupe(entries.Normalize(list)))
	default:
		return s.write(path, Merge(current.Entries, list))
	}
}

// Initialize materializes the catalog of every category that has no file yet
// and returns the categories it created. Existing files are never touched.
func (s *Store) Initialize(owner string, categories []string, catalog CatalogSource) ([]string, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, errors.NewValidationError("owner", owner, "owner is required")
	}

	var created []string
	for _, category := range categories {
		if err := validate(category, owner); err != nil {
			return created, err
		}
		if s.Exists(category, owner) {
			continue
		}

		list, err := catalog.Entries(category)
		if err != nil {
			return created, errors.WrapResource("initialize", "category", category, err)
		}
		if err := s.write(s.Path(category, owner), dedupe(entries.Normalize(list))); err != nil {
			return created, err
		}
		created = append(created, category)
		s.log().Debug().
			Str("owner", owner).
			Str("category", category).
			Int("entries", len(list)).
			Msg("Initialized category")
	}
	return created, nil
}

// Categories lists the categories stored for owner, sorted by name.
func (s *Store) Categories(owner string) ([]string, error) {
	dir := filepath.Join(s.root, owner)
	items, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapIO("read", dir, err)
	}

	var names []string
	for _, item := range items {
		name := item.Name()
		if item.IsDir() || !strings.HasSuffix(name, constants.StoreFileExtension) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, constants.StoreFileExtension))
	}
	slices.Sort(names)
	return names, nil
}

// Merge replaces each stored entry whose id matches an incoming entry,
// keeping its position. Incoming entries without an id or without a stored
// counterpart are ignored. The stored slice is not modified.
func Merge(stored, incoming entries.Entries) entries.Entries {
	merged := slices.Clone(stored)
	if merged == nil {
		merged = entries.Entries{}
	}
	for _, e := range incoming {
		if !e.HasID() {
			continue
		}
		if i := merged.IndexByID(*e.ID); i >= 0 {
			merged[i] = e
		}
	}
	return merged
}

// dedupe collapses entries sharing an id into the position of the first
// occurrence, keeping the value of the last.
func dedupe(list entries.Entries) entries.Entries {
	out := make(entries.Entries, 0, len(list))
	seen := make(map[int64]int, len(list))
	for _, e := range list {
		if e.HasID() {
			if i, ok := seen[*e.ID]; ok {
				out[i] = e
				continue
			}
			seen[*e.ID] = len(out)
		}
		out = append(out, e)
	}
	return out
}

func (s *Store) write(path string, list entries.Entries) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("mkdir", dir, err)
	}

	data, err := encode(list, s.level)
	if err != nil {
		return errors.WrapResource("save", "category", path, err)
	}

	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", dir, err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return errors.WrapIO("write", tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("write", tempPath, err)
	}
	if err := os.Chmod(tempPath, constants.FilePermissions); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("chmod", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("rename", path, err)
	}
	return nil
}

func (s *Store) log() *zerolog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.Default()
}

// encode renders entries as 4-space indented JSON without HTML escaping and
// compresses the result.
func encode(list entries.Entries, level int) ([]byte, error) {
	if list == nil {
		list = entries.Entries{}
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(zw)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(list); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode reads a compressed entry list. Read failures of the underlying file
// are returned as *errors.IOError, anything else means the content is corrupt.
func decode(r io.Reader, path string) (entries.Entries, error) {
	fr := &readTracker{r: r}
	zr, err := gzip.NewReader(fr)
	if err != nil {
		if fr.err != nil {
			return nil, errors.WrapIO("read", path, fr.err)
		}
		return nil, errors.WrapParse("gzip", path, err)
	}
	defer func() { _ = zr.Close() }()

	data, err := io.ReadAll(zr)
	if err != nil {
		if fr.err != nil {
			return nil, errors.WrapIO("read", path, fr.err)
		}
		return nil, errors.WrapParse("gzip", path, err)
	}

	list, err := entries.Decode(data)
	if err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return list, nil
}

// readTracker remembers the first error of the underlying reader other than EOF.
type readTracker struct {
	r   io.Reader
	err error
}

func (t *readTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

func validate(category, owner string) error {
	if strings.TrimSpace(owner) == "" {
		return errors.NewValidationError("owner", owner, "owner is required")
	}
	if strings.TrimSpace(category) == "" {
		return errors.NewValidationError("category", category, "category is required")
	}
	for field, value := range map[string]string{"owner": owner, "category": category} {
		if strings.ContainsAny(value, `/\`) || value == "." || value == ".." {
			return errors.NewValidationError(field, value, fmt.Sprintf("%q is not a valid %s name", value, field))
		}
	}
	return nil
}
