// Package state persists the key-named JSON documents shared by the
// orchestration engines (rpi-state, ralph-state, team-state, ...).
//
// Documents live under .oh-my-ccg/state in the project directory. Reads never
// fail: a missing or corrupt document is reported as absent. Writes stamp
// updatedAt and replace the file through a temp-file rename. There is no
// cross-process locking; when two processes write the same document the last
// writer wins.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"
)

// DefaultDir is the project-relative state directory.
const DefaultDir = ".oh-my-ccg/state"

// Stamper is implemented by documents that carry an updatedAt field.
type Stamper interface {
	SetUpdatedAt(ts string)
}

// Store reads and writes state documents on a hackpadfs filesystem.
type Store struct {
	fs  hackpadfs.FS
	dir string
	now func() time.Time
}

// NewStore creates a store rooted at dir inside fsys. dir uses forward
// slashes and no leading slash (io/fs path rules).
func NewStore(fsys hackpadfs.FS, dir string) *Store {
	return &Store{fs: fsys, dir: dir, now: time.Now}
}

// NewOSStore creates a store for the project at workDir on the host filesystem.
func NewOSStore(workDir string) (*Store, error) {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolve work dir: %w", err)
	}
	root := strings.TrimPrefix(filepath.ToSlash(abs), "/")
	if root == "" {
		root = "."
	}
	sub, err := osfs.NewFS().Sub(root)
	if err != nil {
		return nil, fmt.Errorf("open work dir: %w", err)
	}
	return NewStore(sub, DefaultDir), nil
}

// Now returns the store clock's current time as an ISO-8601 UTC timestamp.
func (s *Store) Now() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// SetClock replaces the time source used for updatedAt stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Dir returns the state directory inside the store's filesystem.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) docPath(name string) string {
	return path.Join(s.dir, name+".json")
}

// Read decodes the named document into v. It reports false when the document
// is missing or cannot be parsed; v is left in an unspecified state then.
func (s *Store) Read(name string, v any) bool {
	data, err := hackpadfs.ReadFile(s.fs, s.docPath(name))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false
	}
	return true
}

// Exists reports whether the named document can be read.
func (s *Store) Exists(name string) bool {
	var raw map[string]any
	return s.Read(name, &raw)
}

// Write stamps updatedAt on doc and persists it as indented JSON.
func (s *Store) Write(name string, doc any) error {
	ts := s.Now()
	switch d := doc.(type) {
	case Stamper:
		d.SetUpdatedAt(ts)
	case map[string]any:
		d["updatedAt"] = ts
	}

	data, err := marshalDoc(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	if err := hackpadfs.MkdirAll(s.fs, s.dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	return s.atomicWrite(s.docPath(name), data)
}

// Merge shallow-merges updates into the named document (creating it when
// absent) and returns the stored result.
func (s *Store) Merge(name string, updates map[string]any) (map[string]any, error) {
	current := map[string]any{}
	if !s.Read(name, &current) || current == nil {
		current = map[string]any{}
	}
	for k, v := range updates {
		current[k] = v
	}
	if err := s.Write(name, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Delete removes the named document. Deleting a missing document is a no-op.
func (s *Store) Delete(name string) error {
	err := hackpadfs.Remove(s.fs, s.docPath(name))
	if err != nil && !errors.Is(err, hackpadfs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) atomicWrite(p string, data []byte) error {
	// Each write gets its own temp file so concurrent writers never rename
	// each other's data.
	tmp := p + "." + uuid.NewString()[:8] + ".tmp"
	if err := hackpadfs.WriteFullFile(s.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := hackpadfs.Rename(s.fs, tmp, p); err != nil {
		_ = hackpadfs.Remove(s.fs, tmp)
		// Filesystems without rename support still get a full overwrite.
		if err := hackpadfs.WriteFullFile(s.fs, p, data, 0644); err != nil {
			return fmt.Errorf("write state file: %w", err)
		}
	}
	return nil
}

// marshalDoc renders doc as 2-space indented JSON without HTML escaping.
func marshalDoc(doc any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
