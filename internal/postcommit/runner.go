// Package postcommit runs best-effort side effects after a primary action
// has already committed. Each task gets its own detached context and its own
// error channel: failures are logged and counted, never joined into the
// result of the action that triggered them.
package postcommit

import (
	"context"
	"log/slog"
	"time"
)

type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type Runner struct {
	timeout time.Duration
	logger  *slog.Logger
}

func NewRunner(timeout time.Duration, logger *slog.Logger) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{timeout: timeout, logger: logger.With("component", "PostCommitRunner")}
}

// Dispatch launches every task on its own goroutine. The contexts are
// detached from the request that triggered the dispatch, so an impatient
// client cannot cancel a notification mid-flight.
func (r *Runner) Dispatch(tasks ...Task) {
	for _, task := range tasks {
		go r.run(task)
	}
}

func (r *Runner) run(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	// Tasks run outside any HTTP middleware; a panic here would take the
	// whole process down with it.
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Post-commit task panicked", "task", task.Name, "panic", p, "duration", time.Since(start))
		}
	}()
	if err := task.Run(ctx); err != nil {
		r.logger.Error("Post-commit task failed", "task", task.Name, "error", err, "duration", time.Since(start))
		return
	}
	r.logger.Info("Post-commit task completed", "task", task.Name, "duration", time.Since(start))
}
