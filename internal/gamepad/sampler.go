package gamepad

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/soar/BrickTeleop/internal/mixer"
)

// ErrControllerDisconnected is returned when no controller is active.
var ErrControllerDisconnected = errors.New("controller disconnected")

const connectPollInterval = 50 * time.Millisecond

// StateSource provides controller snapshots. *Reader implements it.
type StateSource interface {
	CurrentState() State
}

// Sampler converts controller snapshots into mixer samples on the
// controller's percent scale.
type Sampler struct {
	src        StateSource
	stopButton Button
	logger     *zap.SugaredLogger
	warned     map[string]bool
}

func NewSampler(src StateSource, stopButton Button, logger *zap.SugaredLogger) *Sampler {
	return &Sampler{
		src:        src,
		stopButton: stopButton,
		logger:     logger,
		warned:     make(map[string]bool),
	}
}

// WaitConnected blocks until a controller is active, ctx is done or
// timeout elapses. A zero timeout waits indefinitely.
func (s *Sampler) WaitConnected(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(connectPollInterval)
	defer ticker.Stop()

	s.logger.Info("waiting for controller")
	for {
		if st := s.src.CurrentState(); st.Connected {
			s.logger.Infow("controller ready", "name", st.Name, "type", st.ControllerType)
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ErrControllerDisconnected, "waiting for controller")
		case <-ticker.C:
		}
	}
}

// Sample reads the current controller state. It fails with
// ErrControllerDisconnected when the controller is gone.
func (s *Sampler) Sample(_ context.Context) (mixer.Sample, error) {
	st := s.src.CurrentState()
	if !st.Connected {
		return mixer.Sample{}, ErrControllerDisconnected
	}
	return mixer.Sample{
		X:            s.percent("left_x", st.Left.X),
		Y:            s.percent("left_y", st.Left.Y),
		TriggerLeft:  s.percent("lt", st.LT),
		TriggerRight: s.percent("rt", st.RT),
		Stop:         st.Pressed(s.stopButton),
	}, nil
}

// percent scales a normalized channel to [-100, 100]. The raw value is
// passed through unclamped; the mixer clamps. The first out-of-range reading
// per channel is logged so the hardware range can be checked.
func (s *Sampler) percent(channel string, v float64) float64 {
	p := v * mixer.AxisMax
	if _, out := mixer.Clamp(p); out && !s.warned[channel] {
		s.warned[channel] = true
		s.logger.Warnw("axis reading outside expected range", "channel", channel, "value", p)
	}
	return p
}
