package ledger

import (
	"encoding/json"
	"io/fs"
	"os"

	"github.com/lockstepd/lockstep/internal/errors"
	"github.com/lockstepd/lockstep/internal/logging"
)

// Store serializes the ledger to and from a single JSON file. It is pure
// I/O: callers are responsible for holding the lock manager's lock across
// any read-mutate-write span.
type Store struct {
	path string
	log  *logging.Logger
}

// NewStore creates a Store for the given ledger file path.
func NewStore(path string, log *logging.Logger) *Store {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Store{path: path, log: log}
}

// Path returns the ledger file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the ledger file is present on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Read loads the ledger from disk. A missing file yields an empty,
// well-formed ledger (first run). A file that exists but cannot be parsed
// yields ErrLedgerCorrupt: callers must not overwrite a document they could
// not understand.
func (s *Store) Read() (*Ledger, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug("ledger file absent, starting empty", "path", s.path)
			return New(), nil
		}
		return nil, errors.NewLedgerError("failed to read ledger file", err).WithPath(s.path)
	}

	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.NewLedgerError("failed to parse ledger file",
			errors.Join(errors.ErrLedgerCorrupt, err)).WithPath(s.path)
	}

	if l.Tasks == nil {
		l.Tasks = []*Task{}
	}
	if l.TaskPairs == nil {
		l.TaskPairs = []*TaskPair{}
	}

	return &l, nil
}

// Write replaces the whole document on disk. The write is atomic: data is
// written to a temporary file first, then renamed into place.
func (s *Store) Write(l *Ledger) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return errors.NewLedgerError("failed to marshal ledger", err).WithPath(s.path)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.NewLedgerError("failed to write temp file", err).WithPath(s.path)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return errors.NewLedgerError("failed to rename temp file", err).WithPath(s.path)
	}

	s.log.Debug("ledger written", "path", s.path, "tasks", len(l.Tasks), "pairs", len(l.TaskPairs))
	return nil
}
