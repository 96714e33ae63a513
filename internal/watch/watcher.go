// Package watch observes the ledger file and reports state summaries as it
// changes. It is read-only and never takes the ledger lock.
package watch

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/lockstepd/lockstep/internal/ledger"
	"github.com/lockstepd/lockstep/internal/logging"
	"github.com/lockstepd/lockstep/internal/pipeline"
)

// Summary is a point-in-time digest of ledger state.
type Summary struct {
	Tasks      map[ledger.TaskStatus]int
	Pairs      map[ledger.PairStatus]int
	ActivePair string // pair_id of the current active pair, empty when none
}

// Summarize digests a ledger snapshot into status counts.
func Summarize(l *ledger.Ledger) Summary {
	s := Summary{
		Tasks: make(map[ledger.TaskStatus]int),
		Pairs: make(map[ledger.PairStatus]int),
	}
	for _, t := range l.Tasks {
		s.Tasks[t.Status]++
	}
	for _, p := range l.TaskPairs {
		s.Pairs[p.Status]++
	}
	if active := pipeline.FindActivePair(l); active != nil {
		s.ActivePair = active.PairID
	}
	return s
}

// Watcher emits a Summary whenever the ledger file changes. Because the
// store writes via temp-file-and-rename, the watcher observes the containing
// directory and filters events down to the ledger file name.
type Watcher struct {
	fsw   *fsnotify.Watcher
	store *ledger.Store
	log   *logging.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
	started  bool
}

// New creates a Watcher over the store's ledger file.
func New(store *ledger.Store, log *logging.Logger) (*Watcher, error) {
	if log == nil {
		log = logging.NopLogger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsw:    fsw,
		store:  store,
		log:    log,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Start begins watching and invokes onChange with a fresh Summary after each
// observed change to the ledger file. The callback runs on the watcher's
// goroutine.
func (w *Watcher) Start(onChange func(Summary)) error {
	dir := filepath.Dir(w.store.Path())
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	name := filepath.Base(w.store.Path())

	w.started = true
	go func() {
		defer close(w.done)
		for {
			select {
			case <-w.stopCh:
				return
			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				l, err := w.store.Read()
				if err != nil {
					// A partially-visible write; the next event will catch up.
					w.log.Debug("ledger unreadable during watch", "error", err)
					continue
				}
				onChange(Summarize(l))
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.log.Warn("watch error", "error", err)
			}
		}
	}()

	return nil
}

// Stop ends the watch and waits for the event loop to exit. It is safe to
// call more than once, and safe when Start never ran (or failed before
// launching the loop).
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.fsw.Close()
		if w.started {
			<-w.done
		}
	})
	return err
}
