package outcomes

import (
	"fmt"
	"sync/atomic"

	"github.com/hivemesh/swarmd/bus"
	"github.com/hivemesh/swarmd/logging"
)

// Sink receives outcome bookkeeping on the coordinator side.
// *coordinator.Coordinator satisfies it.
type Sink interface {
	RecordCompletion(worker, category string, earned float64)
	RecordFailure(worker string)
	RecordRating(worker string, rating float64)
}

// RecorderConfig holds recorder configuration.
type RecorderConfig struct {
	// Bus carries incoming outcomes. Required.
	Bus bus.MessageBus

	// Sink gets profile updates for every valid outcome. Required.
	Sink Sink

	// Logger for malformed or rejected outcomes.
	Logger *logging.Logger
}

// Validate checks the configuration.
func (c RecorderConfig) Validate() error {
	if c.Bus == nil {
		return fmt.Errorf("%w: bus required", ErrInvalidConfig)
	}
	if c.Sink == nil {
		return fmt.Errorf("%w: sink required", ErrInvalidConfig)
	}
	return nil
}

// Recorder consumes outcomes from the bus and feeds worker
// performance profiles.
type Recorder struct {
	bus  bus.MessageBus
	sink Sink
	log  *logging.Logger

	processed atomic.Int64
	rejected  atomic.Int64

	running atomic.Bool
	sub     bus.Subscription
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRecorder creates an outcome recorder.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}
	return &Recorder{
		bus:  cfg.Bus,
		sink: cfg.Sink,
		log:  log.WithComponent("outcomes"),
	}, nil
}

// Start subscribes to all worker outcomes.
func (r *Recorder) Start() error {
	if r.running.Swap(true) {
		return ErrAlreadyStarted
	}

	sub, err := r.bus.Subscribe(bus.OutcomeSubjectPrefix + ".*")
	if err != nil {
		r.running.Store(false)
		return err
	}
	r.sub = sub

	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})

	go r.run()
	return nil
}

func (r *Recorder) run() {
	defer close(r.doneCh)

	for {
		select {
		case <-r.stopCh:
			return
		case msg, ok := <-r.sub.Messages():
			if !ok {
				return
			}
			r.apply(msg)
		}
	}
}

func (r *Recorder) apply(msg *bus.Message) {
	o, err := Unmarshal(msg.Data)
	if err == nil {
		err = o.Validate()
	}
	if err != nil {
		r.rejected.Add(1)
		r.log.Warn("outcome rejected", map[string]interface{}{
			"subject": msg.Subject,
			"error":   err.Error(),
		})
		return
	}

	switch o.Status {
	case StatusSuccess:
		r.sink.RecordCompletion(o.Worker, o.Category, o.Earned)
	case StatusFailed:
		r.sink.RecordFailure(o.Worker)
	}
	if o.Rating >= 0 {
		r.sink.RecordRating(o.Worker, o.Rating)
	}
	r.processed.Add(1)
}

// Processed returns how many outcomes were applied.
func (r *Recorder) Processed() int64 {
	return r.processed.Load()
}

// Rejected returns how many outcomes failed validation.
func (r *Recorder) Rejected() int64 {
	return r.rejected.Load()
}

// Stop unsubscribes and waits for the consume loop to exit.
func (r *Recorder) Stop() error {
	if !r.running.Swap(false) {
		return ErrNotStarted
	}
	close(r.stopCh)
	<-r.doneCh
	return r.sub.Unsubscribe()
}
