// Package control runs the teleoperation loop: sample the controller, mix,
// drive the motors, publish a frame, repeat.
package control

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/soar/BrickTeleop/internal/mixer"
	"github.com/soar/BrickTeleop/internal/motor"
)

// DefaultInterval is the default tick period.
const DefaultInterval = 10 * time.Millisecond

// haltTimeout bounds the final coast-all after the loop ends.
const haltTimeout = time.Second

// ErrStopped is returned by Run when the stop condition fires.
var ErrStopped = errors.New("stop requested")

// Sampler reads one controller sample per tick.
type Sampler interface {
	Sample(ctx context.Context) (mixer.Sample, error)
}

// Observer receives every frame. Implementations must not block.
type Observer interface {
	Observe(Frame)
}

// StopCondition ends the loop when it returns true for a sample.
type StopCondition func(mixer.Sample) bool

// StopOnButton stops when the sample reports the program stop button.
func StopOnButton(s mixer.Sample) bool {
	return s.Stop
}

// Frame is one tick's input and output.
type Frame struct {
	Seq    int64        `json:"seq"`
	Time   time.Time    `json:"time"`
	Sample mixer.Sample `json:"sample"`
	Output mixer.Output `json:"output"`
}

// Loop ties a sampler, a mixer and a motor sink together.
type Loop struct {
	sampler   Sampler
	mixer     *mixer.Mixer
	sink      motor.Sink
	interval  time.Duration
	stop      StopCondition
	observers []Observer
	logger    *zap.SugaredLogger
	now       func() time.Time
	seq       int64
}

// Option configures a Loop.
type Option func(*Loop)

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithStopCondition replaces the default stop-button condition.
func WithStopCondition(c StopCondition) Option {
	return func(l *Loop) { l.stop = c }
}

// WithObservers adds frame observers.
func WithObservers(obs ...Observer) Option {
	return func(l *Loop) { l.observers = append(l.observers, obs...) }
}

func NewLoop(s Sampler, m *mixer.Mixer, sink motor.Sink, logger *zap.SugaredLogger, opts ...Option) *Loop {
	l := &Loop{
		sampler:  s,
		mixer:    m,
		sink:     sink,
		interval: DefaultInterval,
		stop:     StopOnButton,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tick runs one sample-mix-drive cycle. A sampler or sink error is fatal for
// the tick and returned as is; the caller decides whether to halt. A done ctx
// returns ctx.Err() and never reaches the sink.
func (l *Loop) Tick(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	s, err := l.sampler.Sample(ctx)
	if err != nil {
		// The controller reader shuts down on the same ctx.
		if cerr := ctx.Err(); cerr != nil {
			return Frame{}, cerr
		}
		return Frame{}, errors.Wrap(err, "sample controller")
	}
	if l.stop != nil && l.stop(s) {
		return Frame{Sample: s}, ErrStopped
	}

	out := l.mixer.Mix(s)
	if err := ctx.Err(); err != nil {
		return Frame{Sample: s}, err
	}
	if err := motor.Apply(ctx, l.sink, out); err != nil {
		return Frame{}, errors.Wrap(err, "drive motors")
	}

	l.seq++
	f := Frame{Seq: l.seq, Time: l.now(), Sample: s, Output: out}
	for _, o := range l.observers {
		o.Observe(f)
	}
	return f, nil
}

// Run ticks until ctx is done, the stop condition fires or a collaborator
// fails. Every motor is coasted before Run returns.
func (l *Loop) Run(ctx context.Context) (err error) {
	cfg := l.mixer.Config()
	l.logger.Infow("control loop started",
		"interval", l.interval,
		"deadzone", cfg.DeadzoneEnabled,
		"threshold", cfg.Deadzone,
		"turnDivisor", cfg.TurnDivisor,
		"weaponIdle", cfg.WeaponIdle,
	)

	defer func() {
		haltCtx, cancel := context.WithTimeout(context.Background(), haltTimeout)
		defer cancel()
		if herr := motor.Halt(haltCtx, l.sink); herr != nil {
			l.logger.Errorw("failed to halt motors", "error", herr)
			if err == nil || errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled) {
				err = herr
			}
		} else {
			l.logger.Info("motors halted")
		}
	}()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if _, err := l.Tick(ctx); err != nil {
			switch {
			case errors.Is(err, ErrStopped):
				l.logger.Info("stop button pressed")
			case ctx.Err() != nil && errors.Is(err, ctx.Err()):
				l.logger.Infow("control loop cancelled", "ticks", l.seq)
			default:
				l.logger.Errorw("control loop failed", "error", err, "ticks", l.seq)
			}
			return err
		}

		select {
		case <-ctx.Done():
			l.logger.Infow("control loop cancelled", "ticks", l.seq)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
