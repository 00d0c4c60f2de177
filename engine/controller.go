package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bcdannyboy/kalshiq/models"
	"github.com/bcdannyboy/kalshiq/probability"
)

type EventType string

const (
	EventProgress  EventType = "progress"
	EventComplete  EventType = "complete"
	EventError     EventType = "error"
	EventCancelled EventType = "cancelled"
)

// Event is one tagged message on a job's stream.
type Event struct {
	Type     EventType
	JobID    string
	Progress *models.Progress
	Result   *models.SimResult
	Err      error
}

type JobState string

const (
	JobRunning   JobState = "running"
	JobComplete  JobState = "complete"
	JobCancelled JobState = "cancelled"
	JobError     JobState = "error"
)

// SimRequest carries everything one pricing job needs: the market and its
// live spot, the calibrated bundle, the sensitivity multipliers and the
// Monte Carlo settings.
type SimRequest struct {
	Market           models.Market
	Spot             float64
	TimeToCloseHours float64
	Calibration      models.CalibrationData
	Overrides        models.Overrides
	Config           probability.Config
}

type job struct {
	id     string
	state  JobState
	cancel context.CancelFunc
	events chan Event
	done   chan struct{}
}

// Controller accepts simulation requests and runs them one at a time on a
// worker goroutine. It owns the result cache and the cancellation token;
// everything else flows over the per-job event channel. Submitting while a
// job is running cancels and replaces it.
type Controller struct {
	mu      sync.Mutex
	cache   *ResultCache
	log     logrus.FieldLogger
	jobs    map[string]*job
	current *job
}

func NewController(cache *ResultCache, log logrus.FieldLogger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		cache: cache,
		log:   log,
		jobs:  make(map[string]*job),
	}
}

// Submit validates and starts one pricing job, returning its id. A cached
// fingerprint short-circuits straight to a complete event without touching
// the worker.
func (c *Controller) Submit(req SimRequest) (string, error) {
	target, err := models.TargetFromMarket(req.Market)
	if err != nil {
		return "", err
	}
	inputs, err := BuildSimInputs(req.Calibration, req.Spot, req.TimeToCloseHours, req.Overrides)
	if err != nil {
		return "", err
	}

	// Replace any running job before starting the next one.
	c.mu.Lock()
	prev := c.current
	c.mu.Unlock()
	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	fp := Fingerprint(req.Market.Ticker, req.Spot, req.TimeToCloseHours, req.Overrides)
	batches := req.Config.Batches
	if batches <= 0 {
		batches = probability.DefaultBatches
	}

	j := &job{
		id:     uuid.NewString(),
		state:  JobRunning,
		events: make(chan Event, batches+2),
		done:   make(chan struct{}),
	}

	if cached, ok := c.cache.Get(fp); ok {
		c.log.WithFields(logrus.Fields{"job_id": j.id, "fingerprint": fp}).Info("serving cached result")
		j.cancel = func() {}
		j.state = JobComplete
		j.events <- Event{Type: EventComplete, JobID: j.id, Result: cached}
		close(j.events)
		close(j.done)
		c.track(j)
		return j.id, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	c.track(j)

	c.log.WithFields(logrus.Fields{
		"job_id":      j.id,
		"fingerprint": fp,
		"target":      target.String(),
		"paths":       req.Config.Paths,
	}).Info("starting simulation job")

	go c.run(ctx, j, fp, inputs, target, req.Config)
	return j.id, nil
}

// run is the worker body: one full Monte Carlo job, progress relayed onto
// the event stream, the cache written strictly before the complete event.
func (c *Controller) run(ctx context.Context, j *job, fp string, inputs models.SimInputs, target models.Target, cfg probability.Config) {
	defer close(j.done)
	defer close(j.events)

	onProgress := func(p models.Progress) {
		snap := p
		j.events <- Event{Type: EventProgress, JobID: j.id, Progress: &snap}
	}

	result, err := probability.Run(ctx, inputs, target, cfg, onProgress)
	switch {
	case err == nil:
		c.cache.Put(fp, result)
		c.setState(j, JobComplete)
		j.events <- Event{Type: EventComplete, JobID: j.id, Result: result}
		c.log.WithFields(logrus.Fields{"job_id": j.id, "p": result.Probability, "fair": result.FairCents}).Info("job complete")
	case errors.Is(err, models.ErrCancelled):
		c.setState(j, JobCancelled)
		j.events <- Event{Type: EventCancelled, JobID: j.id}
		c.log.WithField("job_id", j.id).Info("job cancelled")
	default:
		c.setState(j, JobError)
		j.events <- Event{Type: EventError, JobID: j.id, Err: err}
		c.log.WithField("job_id", j.id).WithError(err).Error("job failed")
	}
}

// Cancel requests cooperative cancellation of a running job. Already-emitted
// progress events are not retracted.
func (c *Controller) Cancel(jobID string) error {
	c.mu.Lock()
	j, ok := c.jobs[jobID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: unknown job %s", models.ErrInvalidInput, jobID)
	}
	j.cancel()
	return nil
}

// Events returns the job's event stream. The channel is buffered for the
// whole job and closed after the terminal event.
func (c *Controller) Events(jobID string) (<-chan Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	j, ok := c.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown job %s", models.ErrInvalidInput, jobID)
	}
	return j.events, nil
}

// State reports a job's lifecycle state.
func (c *Controller) State(jobID string) (JobState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	j, ok := c.jobs[jobID]
	if !ok {
		return "", fmt.Errorf("%w: unknown job %s", models.ErrInvalidInput, jobID)
	}
	return j.state, nil
}

func (c *Controller) track(j *job) {
	c.mu.Lock()
	c.jobs[j.id] = j
	c.current = j
	c.mu.Unlock()
}

func (c *Controller) setState(j *job, s JobState) {
	c.mu.Lock()
	j.state = s
	c.mu.Unlock()
}
