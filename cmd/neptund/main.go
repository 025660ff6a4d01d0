// cmd/neptund/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/titovskiy/NeptunSmart/internal/api"
	"github.com/titovskiy/NeptunSmart/internal/config"
	"github.com/titovskiy/NeptunSmart/internal/history"
	"github.com/titovskiy/NeptunSmart/internal/logging"
	"github.com/titovskiy/NeptunSmart/internal/metrics"
	"github.com/titovskiy/NeptunSmart/internal/mqtt"
	"github.com/titovskiy/NeptunSmart/internal/poller"
	"github.com/titovskiy/NeptunSmart/internal/status"
)

func main() {
	boot := logging.New("info", "console", os.Stderr)

	if len(os.Args) < 2 {
		boot.Fatal().Msg("usage: neptund <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	// .env is optional
	if err := godotenv.Load(); err == nil {
		boot.Info().Msg("loaded .env")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("config load failed")
	}
	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		boot.Fatal().Err(err).Msg("config env override failed")
	}
	if err := config.Validate(cfg); err != nil {
		boot.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr).
		With().Str("device", cfg.Device.Name).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Build pipeline
	// --------------------

	m := metrics.New()

	// ---- history (optional) ----
	var (
		store    *history.Store
		recorder *history.Recorder
		seed     map[string]float64
	)
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			logger.Fatal().Err(err).Msg("history open failed")
		}
		defer store.Close()

		seed, err = store.Latest(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("history seed unavailable")
		}
		recorder = history.NewRecorder(store, history.NewValueCache(cfg.History.DedupTTL))
	}

	// ---- session + poller ----
	p, sess, err := poller.Build(cfg, poller.Options{
		Logger:  logger,
		Seed:    seed,
		OnWrite: m.ObserveWrite,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("poller build failed")
	}

	tracker := status.NewTracker(cfg.Device.Name, cfg.Poll.Interval)

	// ---- mqtt (optional) ----
	var bridge *mqtt.Bridge
	if cfg.MQTT.Broker != "" {
		bridge, err = mqtt.New(mqtt.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			QoS:         byte(cfg.MQTT.QoS),
		}, sess, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("mqtt setup failed")
		}

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := bridge.Connect(connectCtx); err != nil {
			// paho keeps retrying in the background
			logger.Warn().Err(err).Msg("mqtt not connected yet")
		}
		cancel()
	}

	// ---- http (optional) ----
	if cfg.HTTP.Listen != "" {
		deps := api.Deps{Controller: sess, Status: tracker, Metrics: m.Handler()}
		if store != nil {
			deps.History = store
		}
		srv := api.New(deps, logger)
		go func() {
			if err := srv.Run(ctx, cfg.HTTP.Listen); err != nil {
				logger.Error().Err(err).Msg("http server failed")
				stop()
			}
		}()
	}

	// --------------------
	// Run
	// --------------------

	out := make(chan poller.PollResult)
	go p.Run(ctx, out)

	d := &daemon{
		log:      logger,
		tracker:  tracker,
		metrics:  m,
		recorder: recorder,
		bridge:   bridge,
		state:    func() string { return sess.State().String() },
	}
	d.loop(ctx, out)

	// --------------------
	// Shutdown
	// --------------------

	if err := sess.Close(); err != nil {
		logger.Warn().Err(err).Msg("session close failed")
	}
	tracker.SetState(sess.State().String())
	tracker.Disable()
	d.publishStatus()

	if bridge != nil {
		bridge.Close()
	}
	logger.Info().Msg("stopped")
}

// daemon is the runner-owned state between the poller and the outputs.
type daemon struct {
	log      zerolog.Logger
	tracker  *status.Tracker
	metrics  *metrics.Metrics
	recorder *history.Recorder
	bridge   *mqtt.Bridge
	state    func() string
}

// loop consumes poll results and drives the 1 Hz status clock until ctx ends.
func (d *daemon) loop(ctx context.Context, out <-chan poller.PollResult) {
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// Full status publish on start (identity re-assert).
	d.publishStatus()

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-out:
			d.handle(ctx, res)

		case now := <-secTicker.C:
			if d.tracker.Tick(now) {
				d.publishStatus()
			}
		}
	}
}

func (d *daemon) handle(ctx context.Context, res poller.PollResult) {
	d.metrics.ObservePoll(res.Err, res.Duration)

	changed := d.tracker.Observe(res.Err, res.At)
	changed = d.tracker.SetState(d.state()) || changed

	if res.Err != nil {
		d.log.Warn().Err(res.Err).Uint16("code", status.ErrorCode(res.Err)).Msg("poll failed")
	} else {
		d.metrics.Observe(res.Snapshot)

		if d.recorder != nil {
			if n, err := d.recorder.Record(ctx, res.Snapshot); err != nil {
				d.log.Error().Err(err).Msg("history write failed")
			} else if n > 0 {
				d.log.Debug().Int("rows", n).Msg("counter readings stored")
			}
		}

		if d.bridge != nil {
			if err := d.bridge.PublishState(res.Snapshot); err != nil {
				d.log.Warn().Err(err).Msg("state publish failed")
			}
		}
	}

	if changed {
		d.publishStatus()
	}
}

func (d *daemon) publishStatus() {
	snap := d.tracker.Snapshot()
	d.metrics.SetHealth(snap.Health)

	if d.bridge == nil {
		return
	}
	if err := d.bridge.StatusWriter().WriteStatus(snap); err != nil {
		d.log.Warn().Err(err).Msg("status publish failed")
	}
}
