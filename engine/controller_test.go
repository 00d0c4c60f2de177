package engine

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcdannyboy/kalshiq/models"
	"github.com/bcdannyboy/kalshiq/probability"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func request(ticker string, paths, batches int) SimRequest {
	strike := 60000.0
	return SimRequest{
		Market:           models.Market{Ticker: ticker, CloseTime: time.Now().Add(time.Hour), Strike: &strike},
		Spot:             60000,
		TimeToCloseHours: 1.0,
		Calibration:      calibrated(),
		Overrides:        models.DefaultOverrides(),
		Config:           probability.Config{Paths: paths, Batches: batches, BaseSeed: 42},
	}
}

func TestControllerRunsJobToCompletion(t *testing.T) {
	cache := NewResultCache(10, time.Minute)
	ctrl := NewController(cache, quietLogger())

	id, err := ctrl.Submit(request("BTCUSD-A", 2000, 10))
	require.NoError(t, err)

	events, err := ctrl.Events(id)
	require.NoError(t, err)

	progress := 0
	var result *models.SimResult
	for ev := range events {
		switch ev.Type {
		case EventProgress:
			progress++
			assert.Zero(t, result, "progress must precede complete")
		case EventComplete:
			result = ev.Result
			// The cache write strictly precedes the complete event.
			_, ok := cache.Get(Fingerprint("BTCUSD-A", 60000, 1.0, models.DefaultOverrides()))
			assert.True(t, ok)
		default:
			t.Fatalf("unexpected event %s", ev.Type)
		}
	}

	require.NotNil(t, result)
	assert.Equal(t, 10, progress)
	assert.Equal(t, 2000, result.Diagnostics.N)

	state, err := ctrl.State(id)
	require.NoError(t, err)
	assert.Equal(t, JobComplete, state)
}

func TestControllerServesCachedResult(t *testing.T) {
	cache := NewResultCache(10, time.Minute)
	ctrl := NewController(cache, quietLogger())

	first, err := ctrl.Submit(request("BTCUSD-B", 2000, 10))
	require.NoError(t, err)
	events, err := ctrl.Events(first)
	require.NoError(t, err)
	var fresh *models.SimResult
	for ev := range events {
		if ev.Type == EventComplete {
			fresh = ev.Result
		}
	}
	require.NotNil(t, fresh)

	// The same fingerprint short-circuits without progress events.
	second, err := ctrl.Submit(request("BTCUSD-B", 2000, 10))
	require.NoError(t, err)
	events, err = ctrl.Events(second)
	require.NoError(t, err)

	var sawProgress bool
	var cached *models.SimResult
	for ev := range events {
		switch ev.Type {
		case EventProgress:
			sawProgress = true
		case EventComplete:
			cached = ev.Result
		}
	}
	assert.False(t, sawProgress)
	assert.Equal(t, fresh, cached)

	state, err := ctrl.State(second)
	require.NoError(t, err)
	assert.Equal(t, JobComplete, state)
}

func TestControllerCancelDuringRun(t *testing.T) {
	cache := NewResultCache(10, time.Minute)
	ctrl := NewController(cache, quietLogger())

	id, err := ctrl.Submit(request("BTCUSD-C", 2_000_000, 100))
	require.NoError(t, err)
	events, err := ctrl.Events(id)
	require.NoError(t, err)

	cancelled := false
	for ev := range events {
		switch ev.Type {
		case EventProgress:
			if !cancelled {
				require.NoError(t, ctrl.Cancel(id))
				cancelled = true
			}
		case EventComplete:
			t.Fatal("no complete event may follow a cancel")
		case EventCancelled:
		case EventError:
			t.Fatalf("unexpected error event: %v", ev.Err)
		}
	}
	require.True(t, cancelled)

	state, err := ctrl.State(id)
	require.NoError(t, err)
	assert.Equal(t, JobCancelled, state)
	assert.Equal(t, 0, cache.Len(), "no cache write for a cancelled job")

	// The controller accepts the next submit after a cancel.
	next, err := ctrl.Submit(request("BTCUSD-C2", 1000, 10))
	require.NoError(t, err)
	events, err = ctrl.Events(next)
	require.NoError(t, err)
	sawComplete := false
	for ev := range events {
		if ev.Type == EventComplete {
			sawComplete = true
		}
	}
	assert.True(t, sawComplete)
}

func TestControllerSubmitReplacesRunningJob(t *testing.T) {
	cache := NewResultCache(10, time.Minute)
	ctrl := NewController(cache, quietLogger())

	first, err := ctrl.Submit(request("BTCUSD-D", 2_000_000, 100))
	require.NoError(t, err)

	second, err := ctrl.Submit(request("BTCUSD-E", 1000, 10))
	require.NoError(t, err)

	firstState, err := ctrl.State(first)
	require.NoError(t, err)
	assert.Equal(t, JobCancelled, firstState)

	events, err := ctrl.Events(second)
	require.NoError(t, err)
	sawComplete := false
	for ev := range events {
		if ev.Type == EventComplete {
			sawComplete = true
		}
	}
	assert.True(t, sawComplete)
}

func TestControllerUnknownJob(t *testing.T) {
	ctrl := NewController(NewResultCache(10, time.Minute), quietLogger())

	assert.ErrorIs(t, ctrl.Cancel("nope"), models.ErrInvalidInput)
	_, err := ctrl.Events("nope")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = ctrl.State("nope")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestControllerRejectsInvalidRequest(t *testing.T) {
	ctrl := NewController(NewResultCache(10, time.Minute), quietLogger())

	req := request("BTCUSD-F", 1000, 10)
	req.Market.Strike = nil // neither strike nor range
	_, err := ctrl.Submit(req)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	req = request("BTCUSD-G", 1000, 10)
	req.Spot = -1
	_, err = ctrl.Submit(req)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
