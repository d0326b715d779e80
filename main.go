package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/soar/BrickTeleop/internal/config"
	"github.com/soar/BrickTeleop/internal/console"
	"github.com/soar/BrickTeleop/internal/control"
	"github.com/soar/BrickTeleop/internal/gamepad"
	"github.com/soar/BrickTeleop/internal/hub"
	"github.com/soar/BrickTeleop/internal/mixer"
	"github.com/soar/BrickTeleop/internal/motor"
	"github.com/soar/BrickTeleop/internal/server"
	"github.com/soar/BrickTeleop/internal/telemetry"
	"github.com/soar/BrickTeleop/internal/tray"
)

// os.Interrupt covers Ctrl+C on every platform; SIGTERM is for service managers.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	os.Exit(run(os.Args[1:]))
}

// stopper cancels the control loop, which coasts every motor on the way out.
type stopper struct {
	cancel context.CancelFunc
	logger *zap.SugaredLogger
}

func (s *stopper) RequestStop(source string) {
	s.logger.Warnw("stop requested", "source", source)
	s.cancel()
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func openSink(cfg *config.Config, logger *zap.SugaredLogger) (motor.Sink, error) {
	switch cfg.Motors.Driver {
	case config.DriverHBridge:
		h, err := motor.NewHBridge(cfg.Pins(), cfg.PWMFrequency(), logger.Named("hbridge"))
		if err != nil {
			return nil, err
		}
		return h, nil
	case config.DriverSerial:
		s, err := motor.OpenSerial(cfg.Serial)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return motor.NewLogSink(logger.Named("motors")), nil
	}
}

func run(args []string) int {
	fs := pflag.NewFlagSet("brick-teleop", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "config:", err)
		return 2
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}
	defer logger.Sync()

	m, err := mixer.New(cfg.MixerConfig())
	if err != nil {
		logger.Errorw("invalid mixer config", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := &stopper{cancel: cancel, logger: logger}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			stop.RequestStop(sig.String())
		case <-ctx.Done():
		}
	}()
	reregisterConsole := console.SetupConsoleHandler(func() { stop.RequestStop("console") }, logger)

	reader := gamepad.NewReader(logger.Named("gamepad"))
	readerDone := make(chan error, 1)
	go func() {
		err := reader.Run(ctx)
		if err != nil {
			logger.Errorw("controller reader failed", "error", err)
			stop.RequestStop("controller reader")
		}
		readerDone <- err
	}()

	sink, err := openSink(cfg, logger)
	if err != nil {
		logger.Errorw("failed to open motor driver", "driver", cfg.Motors.Driver, "error", err)
		cancel()
		<-readerDone
		return 1
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Errorw("failed to close motor driver", "error", err)
		}
	}()

	latest := &control.Latest{}
	observers := []control.Observer{latest}

	var srv *server.Server
	if cfg.HTTP.Addr != "" {
		h := hub.NewHub(logger.Named("hub"))
		go h.Run(ctx)
		b := hub.NewBroadcaster(h, logger.Named("broadcast"))
		go b.Run(ctx)
		observers = append(observers, b)

		assets, err := dashboardFS()
		if err != nil {
			logger.Errorw("failed to load dashboard", "error", err)
			cancel()
			<-readerDone
			return 1
		}
		srv, err = server.New(h, latest, stop, assets, cfg.HTTP.Addr, logger.Named("http"))
		if err != nil {
			logger.Errorw("failed to build HTTP server", "error", err)
			cancel()
			<-readerDone
			return 1
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorw("HTTP server error", "error", err)
				stop.RequestStop("http server")
			}
		}()
	}

	if cfg.MQTT.Broker != "" {
		pub, err := telemetry.Connect(telemetry.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			Interval: cfg.MQTT.Interval,
		}, logger.Named("mqtt"))
		if err != nil {
			logger.Warnw("MQTT telemetry disabled", "error", err)
		} else {
			pubDone := make(chan struct{})
			go func() {
				pub.Run(ctx)
				close(pubDone)
			}()
			defer func() {
				<-pubDone
				pub.Close()
			}()
			observers = append(observers, pub)
		}
	}

	if cfg.Tray.Enabled && runtime.GOOS == "windows" {
		t := tray.New(tray.Actions{
			Stop: func() { stop.RequestStop("tray") },
			Exit: func() { stop.RequestStop("tray exit") },
		}, cfg.HTTP.Addr, logger.Named("tray"))
		go t.Run()
		defer t.Quit()
	} else if console.IsRunningFromConsole() {
		logger.Info("press Ctrl+C to exit")
	}

	sampler := gamepad.NewSampler(reader, cfg.StopButton(), logger.Named("sampler"))
	loop := control.NewLoop(sampler, m, sink, logger.Named("loop"),
		control.WithInterval(cfg.Loop.Interval),
		control.WithObservers(observers...),
	)

	code := 0
	if err := sampler.WaitConnected(ctx, cfg.Controller.ConnectTimeout); err != nil {
		if ctx.Err() == nil {
			logger.Errorw("no controller", "timeout", cfg.Controller.ConnectTimeout, "error", err)
			code = 1
		}
		// Motors have not been driven yet, but leave them coasted anyway.
		if herr := motor.Halt(context.Background(), sink); herr != nil {
			logger.Errorw("failed to halt motors", "error", herr)
		}
	} else {
		// SDL replaces the console handler during init.
		reregisterConsole()

		err := loop.Run(ctx)
		switch {
		case err == nil, errors.Is(err, control.ErrStopped), errors.Is(err, context.Canceled):
			logger.Info("control loop finished")
		default:
			logger.Errorw("control loop error", "error", err)
			code = 1
		}
	}

	cancel()
	if err := <-readerDone; err != nil {
		code = 1
	}

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("HTTP server shutdown error", "error", err)
		}
	}

	logger.Infow("BrickTeleop stopped", "exitCode", code)
	return code
}
