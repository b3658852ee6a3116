package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"airmatch/internal/logging"
)

// ErrBusy is returned when a background task is already running.
var ErrBusy = errors.New("a background task is already running")

// ErrLocked is returned when another process holds the task lock.
var ErrLocked = errors.New("task lock held by another process")

// Func is the body of a background task. It must return promptly once
// its context is cancelled.
type Func func(ctx context.Context) error

// Progress is a point-in-time snapshot of a task's work.
type Progress struct {
	Done   int
	Total  int
	Status string
}

// ProgressFunc supplies the snapshot returned by Task.Progress.
type ProgressFunc func() Progress

// Task is one running or finished background job.
type Task struct {
	ID   string
	Name string

	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	err      error
	progress ProgressFunc
}

// Cancel requests cancellation. Safe to call more than once.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the task finishes and returns its error.
func (t *Task) Wait() error {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Done reports whether the task has finished without blocking.
func (t *Task) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// SetProgressFunc installs the snapshot source consulted by Progress.
// Call it once, right after the task starts.
func (t *Task) SetProgressFunc(fn ProgressFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = fn
}

// Progress reports the task's current progress. Tasks without a
// progress source report a zero snapshot.
func (t *Task) Progress() Progress {
	t.mu.Lock()
	fn := t.progress
	t.mu.Unlock()
	if fn == nil {
		return Progress{}
	}
	return fn()
}

func (t *Task) finish(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

// Manager runs at most one background task at a time. In-process
// exclusion uses a mutex; cross-process exclusion uses a file lock so
// two daemons pointed at the same data directory cannot both run a
// batch.
type Manager struct {
	lockPath string
	logger   *slog.Logger

	mu      sync.Mutex
	current *Task
}

// NewManager constructs a manager. lockPath is the advisory lock file
// guarding the data directory; empty disables cross-process locking.
func NewManager(lockPath string, logger *slog.Logger) *Manager {
	return &Manager{
		lockPath: lockPath,
		logger:   logging.WithComponent(logger, "tasks"),
	}
}

// Start launches fn in the background. It fails with ErrBusy when a
// task is still running in this process, and ErrLocked when another
// process holds the lock.
func (m *Manager) Start(ctx context.Context, name string, fn Func) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && !m.current.Done() {
		return nil, ErrBusy
	}

	var fileLock *flock.Flock
	if m.lockPath != "" {
		fileLock = flock.New(m.lockPath)
		locked, err := fileLock.TryLock()
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrLocked
		}
	}

	taskCtx, cancel := context.WithCancel(ctx)
	task := &Task{
		ID:     uuid.NewString(),
		Name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.current = task

	logger := m.logger.With(logging.String("task", name), logging.String("task_id", task.ID))
	logger.Info("task started")

	go func() {
		defer cancel()
		err := fn(taskCtx)
		if fileLock != nil {
			if unlockErr := fileLock.Unlock(); unlockErr != nil {
				logger.Warn("release task lock", logging.Error(unlockErr))
			}
		}
		if err != nil {
			logger.Error("task finished with error", logging.Error(err))
		} else {
			logger.Info("task finished")
		}
		task.finish(err)
	}()
	return task, nil
}

// Current returns the most recently started task, finished or not, and
// nil before any task has run.
func (m *Manager) Current() *Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Shutdown cancels any running task and waits for it to finish.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	task := m.current
	m.mu.Unlock()
	if task == nil || task.Done() {
		return
	}
	task.Cancel()
	_ = task.Wait()
}
