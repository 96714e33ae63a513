// Package lockfile provides advisory cross-process mutual exclusion over the
// shared ledger via a lock file.
//
// The mere existence of the lock file is the lock. Its JSON contents
// ({agent_id, timestamp}) are used only for stale detection and ownership
// verification, never for business logic. Acquisition polls with an
// exclusive create (O_CREATE|O_EXCL); a lock older than the stale timeout is
// presumed abandoned by a dead holder and is deleted so acquisition can
// proceed. Release verifies ownership first and refuses to delete another
// agent's lock.
package lockfile

import (
	"encoding/json"
	"io/fs"
	"os"
	"time"

	"github.com/lockstepd/lockstep/internal/errors"
	"github.com/lockstepd/lockstep/internal/logging"
)

// Record is the serialized content of the lock file.
type Record struct {
	AgentID   string    `json:"agent_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Manager acquires and releases the advisory lock file on behalf of one
// agent. It holds no in-process state about the lock; the file is the state.
type Manager struct {
	path    string
	agentID string
	log     *logging.Logger
}

// NewManager creates a Manager for the given lock file path and agent ID.
func NewManager(path, agentID string, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Manager{
		path:    path,
		agentID: agentID,
		log:     log.WithAgent(agentID),
	}
}

// Path returns the lock file path.
func (m *Manager) Path() string {
	return m.path
}

// Acquire attempts to take the lock, retrying until maxWait elapses.
// It returns true on success. False is a normal outcome under contention;
// callers must treat it as "no work done this cycle", never as permission to
// proceed unsynchronized.
//
// If an existing lock file is unreadable or corrupt it is treated as held.
// If its timestamp is older than staleTimeout, the file is deleted and
// acquisition is retried immediately within the same wait window.
func (m *Manager) Acquire(maxWait, retryInterval, staleTimeout time.Duration) bool {
	deadline := time.Now().Add(maxWait)

	for {
		created, err := m.tryCreate()
		if created {
			m.log.Debug("lock acquired", "path", m.path)
			return true
		}
		if err != nil {
			// Write failures are retried within the same wait window.
			m.log.Warn("error creating lock file, retrying", "path", m.path, "error", err)
		} else {
			rec, readErr := m.read()
			switch {
			case readErr != nil:
				// Never assume ownership of a lock we cannot parse.
				m.log.Warn("lock file unreadable, assuming held", "path", m.path, "error", readErr)
			case staleTimeout > 0 && time.Since(rec.Timestamp) > staleTimeout:
				m.log.Warn("breaking stale lock",
					"path", m.path,
					"holder", rec.AgentID,
					"age", time.Since(rec.Timestamp).Round(time.Second).String())
				if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
					m.log.Warn("failed to remove stale lock", "path", m.path, "error", err)
				} else {
					// Retry immediately after breaking.
					continue
				}
			default:
				m.log.Debug("lock held, waiting", "path", m.path, "holder", rec.AgentID)
			}
		}

		if !time.Now().Add(retryInterval).Before(deadline) {
			m.log.Warn("failed to acquire lock within wait budget",
				"path", m.path, "max_wait", maxWait.String())
			return false
		}
		time.Sleep(retryInterval)
	}
}

// Release deletes the lock file if this agent still owns it. If the lock was
// stale-broken and re-acquired by someone else, the other holder's lock is
// left in place and a warning is logged.
func (m *Manager) Release() {
	rec, err := m.read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.log.Debug("no lock file to release", "path", m.path)
		} else {
			m.log.Warn("cannot verify lock ownership, not releasing", "path", m.path, "error", err)
		}
		return
	}

	if rec.AgentID != m.agentID {
		m.log.Warn("lock held by another agent, not releasing",
			"path", m.path, "holder", rec.AgentID)
		return
	}

	if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.log.Warn("failed to remove lock file", "path", m.path, "error", err)
		return
	}
	m.log.Debug("lock released", "path", m.path)
}

// Holder returns the current lock record, if one can be read.
func (m *Manager) Holder() (Record, bool) {
	rec, err := m.read()
	if err != nil {
		return Record{}, false
	}
	return rec, true
}

// tryCreate attempts an exclusive create of the lock file. It returns
// (false, nil) when the file already exists, and (false, err) on write
// failures, which callers retry.
func (m *Manager) tryCreate() (bool, error) {
	f, err := os.OpenFile(m.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}

	rec := Record{AgentID: m.agentID, Timestamp: time.Now().UTC()}
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		_ = f.Close()
		// The half-written file is ours; remove it so others aren't blocked
		// on an unparseable lock.
		_ = os.Remove(m.path)
		return false, err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(m.path)
		return false, err
	}
	return true, nil
}

func (m *Manager) read() (Record, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, errors.NewLockError("failed to parse lock file",
			errors.Join(errors.ErrLockCorrupt, err)).WithPath(m.path)
	}
	return rec, nil
}
