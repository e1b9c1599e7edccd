package cron

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job runs a function on a cron schedule, skipping a run while the previous
// one is still in progress.
type Job struct {
	name      string
	cron      *cron.Cron
	cronEntry cron.EntryID
	runFunc   func() error
	mutex     sync.RWMutex
	isRunning bool
	schedule  string
	log       *slog.Logger
}

// NewJob schedules runFunc. Schedules use the six-field format with seconds
// or a descriptor such as "@every 30s".
func NewJob(name, schedule string, runFunc func() error, log *slog.Logger) (*Job, error) {
	job := &Job{
		name:     name,
		cron:     cron.New(cron.WithSeconds()),
		runFunc:  runFunc,
		schedule: schedule,
		log:      log.With("component", "cron", "job", name),
	}

	entryID, err := job.cron.AddFunc(schedule, job.run)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule %s with %q: %w", name, schedule, err)
	}
	job.cronEntry = entryID
	return job, nil
}

// Start starts the scheduler and triggers an immediate first run.
func (j *Job) Start() {
	j.cron.Start()
	j.log.Info("Scheduled job", "schedule", j.schedule)
	go j.run()
}

func (j *Job) run() {
	j.mutex.Lock()
	if j.isRunning {
		j.mutex.Unlock()
		j.log.Debug("Job already in progress, skipping")
		return
	}
	j.isRunning = true
	j.mutex.Unlock()

	defer func() {
		j.mutex.Lock()
		j.isRunning = false
		j.mutex.Unlock()
	}()

	if err := j.runFunc(); err != nil {
		j.log.Warn("Job failed", "error", err)
	}
}

// Stop stops the scheduler and waits for a running job to finish.
func (j *Job) Stop() {
	<-j.cron.Stop().Done()
	j.log.Info("Job stopped")
}

// NextRun returns the next scheduled run time.
func (j *Job) NextRun() time.Time {
	return j.cron.Entry(j.cronEntry).Next
}

// IsRunning returns whether a run is currently in progress.
func (j *Job) IsRunning() bool {
	j.mutex.RLock()
	defer j.mutex.RUnlock()
	return j.isRunning
}

func (j *Job) Schedule() string {
	return j.schedule
}
