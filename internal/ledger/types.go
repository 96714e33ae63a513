package ledger

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskPending indicates the task is waiting to be claimed.
	TaskPending TaskStatus = "PENDING"

	// TaskInProgress indicates the task has been claimed by an agent and is
	// being worked on.
	TaskInProgress TaskStatus = "IN_PROGRESS"

	// TaskCompleted indicates the task finished successfully.
	TaskCompleted TaskStatus = "COMPLETED"

	// TaskFailed indicates the task finished unsuccessfully. Failed tasks
	// are not reclaimed by the core; retry policy is external.
	TaskFailed TaskStatus = "FAILED"
)

// String returns the string representation of the task status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal returns true if this status represents a final state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// Valid returns true if the status is one of the known task states.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskFailed:
		return true
	}
	return false
}

// PairStatus represents the current state of a task pair.
type PairStatus string

const (
	// PairBlocked indicates the pair is waiting for an earlier pair in the
	// sequence to complete.
	PairBlocked PairStatus = "BLOCKED"

	// PairReady indicates the pair's tasks may be claimed.
	PairReady PairStatus = "READY"

	// PairCompleted indicates both of the pair's tasks are completed.
	PairCompleted PairStatus = "COMPLETED"
)

// String returns the string representation of the pair status.
func (s PairStatus) String() string {
	return string(s)
}

// Valid returns true if the status is one of the known pair states.
func (s PairStatus) Valid() bool {
	switch s {
	case PairBlocked, PairReady, PairCompleted:
		return true
	}
	return false
}

// EventKind identifies the type of a history event.
type EventKind string

const (
	// EventCreated records initial creation of a task or pair.
	EventCreated EventKind = "CREATED"

	// EventAssigned records a task being claimed by an agent.
	EventAssigned EventKind = "ASSIGNED"

	// EventStatusChanged records any other status transition.
	EventStatusChanged EventKind = "STATUS_CHANGED"

	// EventUpdated records a non-status field change, such as a task being
	// associated with a pair.
	EventUpdated EventKind = "UPDATED"
)

// HistoryEvent is a single append-only audit record on a task or pair.
type HistoryEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Event     EventKind `json:"event"`
	AgentID   string    `json:"agent_id"`
	Details   string    `json:"details"`
}

// Task is a single unit of work in the ledger.
type Task struct {
	ID              string         `json:"id"`
	PairID          string         `json:"pair_id"`
	AgentPreference string         `json:"agent_preference"`
	Description     string         `json:"description"`
	Status          TaskStatus     `json:"status"`
	AssignedTo      string         `json:"assigned_to"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	History         []HistoryEvent `json:"history"`
}

// NewTask creates a PENDING task with a CREATED history event attributed to
// the given agent.
func NewTask(id, description, agentPreference, createdBy string) *Task {
	now := time.Now().UTC()
	t := &Task{
		ID:              id,
		AgentPreference: agentPreference,
		Description:     description,
		Status:          TaskPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		History:         []HistoryEvent{},
	}
	t.Record(EventCreated, createdBy, "task created")
	return t
}

// Record appends a history event and touches the task's updated_at.
func (t *Task) Record(kind EventKind, agentID, details string) {
	now := time.Now().UTC()
	t.History = append(t.History, HistoryEvent{
		Timestamp: now,
		Event:     kind,
		AgentID:   agentID,
		Details:   details,
	})
	t.UpdatedAt = now
}

// TaskPair links exactly two tasks that must both complete before the
// pipeline advances.
type TaskPair struct {
	PairID        string         `json:"pair_id"`
	Tasks         []string       `json:"tasks"`
	Status        PairStatus     `json:"status"`
	PairLock      bool           `json:"pair_lock"`
	SequenceIndex int            `json:"sequence_index"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	History       []HistoryEvent `json:"history"`
}

// NewPair creates a pair over two task IDs with a CREATED history event.
// BLOCKED pairs start with pair_lock set; READY pairs start unlocked.
func NewPair(pairID, taskID1, taskID2 string, sequenceIndex int, status PairStatus, createdBy string) *TaskPair {
	now := time.Now().UTC()
	p := &TaskPair{
		PairID:        pairID,
		Tasks:         []string{taskID1, taskID2},
		Status:        status,
		PairLock:      status == PairBlocked,
		SequenceIndex: sequenceIndex,
		CreatedAt:     now,
		UpdatedAt:     now,
		History:       []HistoryEvent{},
	}
	p.Record(EventCreated, createdBy, "pair created")
	return p
}

// Record appends a history event and touches the pair's updated_at.
func (p *TaskPair) Record(kind EventKind, agentID, details string) {
	now := time.Now().UTC()
	p.History = append(p.History, HistoryEvent{
		Timestamp: now,
		Event:     kind,
		AgentID:   agentID,
		Details:   details,
	})
	p.UpdatedAt = now
}

// Ledger is the single shared document holding all tasks and task pairs.
// All mutation happens on an in-memory snapshot between a Store.Read and a
// Store.Write, under the lock manager.
type Ledger struct {
	Tasks     []*Task     `json:"tasks"`
	TaskPairs []*TaskPair `json:"task_pairs"`
}

// New returns an empty, well-formed ledger.
func New() *Ledger {
	return &Ledger{
		Tasks:     []*Task{},
		TaskPairs: []*TaskPair{},
	}
}

// Task returns the task with the given ID, or nil.
func (l *Ledger) Task(id string) *Task {
	for _, t := range l.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Pair returns the pair with the given ID, or nil.
func (l *Ledger) Pair(id string) *TaskPair {
	for _, p := range l.TaskPairs {
		if p.PairID == id {
			return p
		}
	}
	return nil
}

// HasID reports whether any task or pair already uses the given ID.
func (l *Ledger) HasID(id string) bool {
	return l.Task(id) != nil || l.Pair(id) != nil
}
