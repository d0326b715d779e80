package telemetry

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zaptest"

	"github.com/soar/BrickTeleop/internal/control"
	"github.com/soar/BrickTeleop/internal/mixer"
)

type published struct {
	topic   string
	payload []byte
}

func TestPublisher(t *testing.T) {
	Convey("Given a publisher with a 100ms interval", t, func() {
		var got []published
		var failWith error
		p := NewPublisher(func(topic string, payload []byte) error {
			if failWith != nil {
				return failWith
			}
			got = append(got, published{topic, payload})
			return nil
		}, "", 100*time.Millisecond, zaptest.NewLogger(t).Sugar())

		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		frame := func(seq int64, offset time.Duration) control.Frame {
			return control.Frame{
				Seq:    seq,
				Time:   start.Add(offset),
				Sample: mixer.Sample{Y: 50},
				Output: mixer.Output{Left: mixer.Drive(-0.5), Right: mixer.Drive(0.5), Weapon: mixer.Coast()},
			}
		}

		Convey("the first frame is published to the default topic", func() {
			So(p.handle(frame(1, 0)), ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].topic, ShouldEqual, DefaultTopic)

			var f control.Frame
			So(json.Unmarshal(got[0].payload, &f), ShouldBeNil)
			So(f.Seq, ShouldEqual, 1)
			So(f.Output.Weapon.IsCoast(), ShouldBeTrue)
			So(f.Output.Right, ShouldResemble, mixer.Drive(0.5))
		})

		Convey("frames inside the interval are skipped", func() {
			So(p.handle(frame(1, 0)), ShouldBeNil)
			So(p.handle(frame(2, 10*time.Millisecond)), ShouldBeNil)
			So(p.handle(frame(3, 99*time.Millisecond)), ShouldBeNil)
			So(p.handle(frame(4, 100*time.Millisecond)), ShouldBeNil)
			So(p.handle(frame(5, 150*time.Millisecond)), ShouldBeNil)
			So(p.handle(frame(6, 210*time.Millisecond)), ShouldBeNil)
			So(got, ShouldHaveLength, 3)
			So(p.Sent(), ShouldEqual, 3)
		})

		Convey("publish errors are returned", func() {
			failWith = errors.New("broker gone")
			So(p.handle(frame(1, 0)), ShouldNotBeNil)
			So(p.Sent(), ShouldEqual, 0)
		})

		Convey("Observe drops frames when the queue is full", func() {
			for i := 0; i < cap(p.frames)+5; i++ {
				p.Observe(frame(int64(i), 0))
			}
			So(len(p.frames), ShouldEqual, cap(p.frames))
		})

		Convey("Run publishes queued frames until cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				p.Run(ctx)
				close(done)
			}()

			p.Observe(frame(1, 0))
			p.Observe(frame(2, 200*time.Millisecond))
			deadline := time.Now().Add(2 * time.Second)
			for p.Sent() < 2 && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			cancel()
			<-done

			So(p.Sent(), ShouldEqual, 2)
			So(func() { p.Close() }, ShouldNotPanic)
		})

		Convey("Close without a broker connection is a no-op", func() {
			So(func() { p.Close() }, ShouldNotPanic)
		})
	})
}
