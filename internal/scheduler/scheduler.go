// Package scheduler runs the server's periodic sweeps on the venue clock.
// One process-wide Runner is created by Init; reminder sweeps register on it
// through RegisterReminderJobs.
package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotInitialized = errors.New("scheduler not initialized")
	ErrEmptyJobName   = errors.New("job name is required")
	ErrEmptyCronExpr  = errors.New("cron expression is required")
)

// Runner owns a gocron scheduler and the named sweeps registered on it.
// Registering a name twice replaces the earlier sweep.
type Runner struct {
	cron gocron.Scheduler
	loc  *time.Location

	mu     sync.Mutex
	sweeps map[string]gocron.Job

	stopOnce sync.Once
	stopErr  error
}

var (
	runner     *Runner
	runnerOnce sync.Once
	runnerErr  error
)

// Init creates the process-wide Runner. Cron expressions are read in loc,
// and Stop waits up to stopTimeout for running sweeps. Later calls return the
// first result.
func Init(loc *time.Location, stopTimeout time.Duration) error {
	runnerOnce.Do(func() {
		runner, runnerErr = NewRunner(loc, stopTimeout)
	})
	return runnerErr
}

// NewRunner builds a stopped Runner. A nil loc means UTC.
func NewRunner(loc *time.Location, stopTimeout time.Duration) (*Runner, error) {
	if loc == nil {
		loc = time.UTC
	}
	opts := []gocron.SchedulerOption{
		gocron.WithLocation(loc),
		gocron.WithGlobalJobOptions(gocron.WithEventListeners(
			gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
				log.Error().
					Str("job_id", jobID.String()).
					Str("job_name", jobName).
					Interface("panic", recoverData).
					Msg("Sweep panicked")
			}),
		)),
	}
	if stopTimeout > 0 {
		opts = append(opts, gocron.WithStopTimeout(stopTimeout))
	}
	cron, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	log.Info().Str("location", loc.String()).Msg("Sweep scheduler ready")
	return &Runner{cron: cron, loc: loc, sweeps: make(map[string]gocron.Job)}, nil
}

func current() (*Runner, error) {
	if runner == nil && runnerErr == nil {
		return nil, ErrNotInitialized
	}
	return runner, runnerErr
}

func Start() error {
	r, err := current()
	if err != nil {
		return err
	}
	return r.Start()
}

func Stop() error {
	r, err := current()
	if err != nil {
		return err
	}
	return r.Stop()
}

// AddJob registers task on the process-wide Runner.
func AddJob(name, cronExpr string, task func(), opts ...gocron.JobOption) (gocron.Job, error) {
	r, err := current()
	if err != nil {
		return nil, err
	}
	return r.AddJob(name, cronExpr, task, opts...)
}

// Start begins firing sweeps and logs when each one runs next.
func (r *Runner) Start() error {
	if r == nil {
		return ErrNotInitialized
	}
	r.cron.Start()

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, job := range r.sweeps {
		next, err := job.NextRun()
		if err != nil {
			log.Warn().Err(err).Str("job_name", name).Msg("Sweep has no next run")
			continue
		}
		log.Info().Str("job_name", name).Time("next_run", next.In(r.loc)).Msg("Sweep scheduled")
	}
	return nil
}

// Stop shuts the scheduler down once; later calls return the first result.
func (r *Runner) Stop() error {
	if r == nil {
		return ErrNotInitialized
	}
	r.stopOnce.Do(func() {
		log.Info().Msg("Sweep scheduler stopping")
		r.stopErr = r.cron.Shutdown()
	})
	return r.stopErr
}

// AddJob registers task under name on a five-field cron expression. Runs are
// logged at debug level. opts follow the name option, so they may override it.
func (r *Runner) AddJob(name, cronExpr string, task func(), opts ...gocron.JobOption) (gocron.Job, error) {
	if r == nil {
		return nil, ErrNotInitialized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyJobName
	}
	if strings.TrimSpace(cronExpr) == "" {
		return nil, ErrEmptyCronExpr
	}
	logger := log.With().Str("job_name", name).Str("cron", cronExpr).Logger()

	r.mu.Lock()
	defer r.mu.Unlock()

	job, err := r.cron.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			started := time.Now()
			task()
			logger.Debug().Dur("took", time.Since(started)).Msg("Sweep finished")
		}),
		append([]gocron.JobOption{gocron.WithName(name)}, opts...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", name, err)
	}
	if previous, ok := r.sweeps[name]; ok {
		if err := r.cron.RemoveJob(previous.ID()); err != nil {
			logger.Warn().Err(err).Msg("Could not remove replaced sweep")
		}
		logger.Info().Msg("Sweep replaced")
	}
	r.sweeps[name] = job
	logger.Info().Msg("Sweep registered")
	return job, nil
}

// Jobs returns the names of the registered sweeps.
func (r *Runner) Jobs() []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.sweeps))
	for name := range r.sweeps {
		names = append(names, name)
	}
	return names
}
