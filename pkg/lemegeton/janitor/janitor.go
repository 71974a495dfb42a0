// Package janitor runs scheduled store maintenance: it re-checks the
// conversation memory cap for every persisted scope and truncates anything
// oversized (for example after a cap reduction or a manually edited
// database).
package janitor

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/aura"
)

// Janitor schedules periodic memory pruning.
type Janitor struct {
	memory   *aura.MemoryManager
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// New creates a janitor. schedule is a cron expression ("@hourly" works).
func New(memory *aura.MemoryManager, schedule string, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	if schedule == "" {
		schedule = "@hourly"
	}
	return &Janitor{
		memory:   memory,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "janitor"),
	}
}

// Start registers the maintenance job and starts the scheduler.
// Runs one prune immediately so a restart repairs oversized documents
// without waiting for the first tick.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.run); err != nil {
		return err
	}
	j.run()
	j.cron.Start()
	j.logger.Info("janitor started", "schedule", j.schedule)
	return nil
}

// Stop stops the scheduler, waiting for a running job to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.logger.Info("janitor stopped")
}

func (j *Janitor) run() {
	if err := j.memory.Prune(); err != nil {
		j.logger.Warn("memory prune failed", "error", err)
	}
}
