// Focus Booster - webcam attentiveness monitor with a Pomodoro timer.
//
// Samples the camera twice a second during work sessions, alerts when the
// user looks away or their eyes close, and summarizes the session's mood
// when a break starts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/focus-booster/internal/config"
	"github.com/teslashibe/focus-booster/internal/log"
	"github.com/teslashibe/focus-booster/pkg/booster"
)

// options collects command line settings. Zero values leave the loaded
// configuration untouched.
type options struct {
	configPath string
	envFile    string
	logLevel   string
	debug      bool
	frames     bool

	addr       string
	detector   string
	source     string
	device     string
	ear        float64
	interval   time.Duration
	cooldown   time.Duration
	history    string
	noPomodoro bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "focusbooster",
		Short: "Webcam attentiveness monitor with a Pomodoro timer",
		Long: `Runs the focus service: samples the camera during work sessions, raises
alerts when attention drifts, and serves the dashboard and status socket.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	pf.StringVar(&opts.envFile, "env", ".env", "Path to a .env file (missing is fine)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging and console traces")
	pf.BoolVar(&opts.frames, "debug-frames", false, "Print a trace line for every analyzed frame")
	pf.StringVar(&opts.history, "history", "", "Session history backend: json, sqlite, postgres or none")

	f := root.Flags()
	f.StringVar(&opts.addr, "addr", "", "Dashboard listen address (e.g. 127.0.0.1:8080)")
	f.StringVar(&opts.detector, "detector", "", "Detector backend: opencv or mock")
	f.StringVar(&opts.source, "source", "", "Frame source: webcam or browser")
	f.StringVar(&opts.device, "device", "", "Webcam device index or path")
	f.Float64Var(&opts.ear, "ear", 0, "Eye aspect ratio threshold (0-1)")
	f.DurationVar(&opts.interval, "interval", 0, "Delay between detections")
	f.DurationVar(&opts.cooldown, "cooldown", 0, "Alert cooldown")
	f.BoolVar(&opts.noPomodoro, "no-pomodoro", false, "Disable the built-in Pomodoro timer")

	root.AddCommand(newSessionsCmd(opts), newConfigCmd(opts))
	return root
}

// configError marks failures that should exit with status 2.
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if _, ok := err.(configError); ok {
		return 2
	}
	return 1
}

func serve(ctx context.Context, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return configError{fmt.Errorf("configuration: %w", err)}
	}

	log.Init(cfg.Log.Level)

	app, err := booster.New(*cfg)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return configError{err}
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Init(ctx); err != nil {
		log.Error("initialization failed", "error", err)
		return err
	}

	err = app.Run(ctx)
	app.Shutdown()
	if err != nil {
		log.Error("runtime error", "error", err)
	}
	return err
}

// loadConfig layers defaults, the YAML file, .env, FOCUS_* variables and
// finally command line flags.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, err
	}
	if err := cfg.LoadEnvConfig(); err != nil {
		return nil, err
	}
	opts.apply(cfg)
	return cfg, nil
}

func (o *options) apply(cfg *config.Config) {
	setString(&cfg.Server.Addr, o.addr)
	setString(&cfg.Detector.Backend, o.detector)
	setString(&cfg.Camera.Source, o.source)
	setString(&cfg.Camera.Device, o.device)
	setString(&cfg.History.Backend, o.history)
	setString(&cfg.Log.Level, o.logLevel)
	if o.ear > 0 {
		cfg.Session.Focus.Threshold = o.ear
	}
	setDuration(&cfg.Session.Interval, o.interval)
	setDuration(&cfg.Session.Alert.Cooldown, o.cooldown)
	if o.noPomodoro {
		cfg.Pomodoro.Enabled = false
	}
	if o.debug {
		cfg.Log.Debug = true
		cfg.Log.Level = "debug"
	}
	if o.frames {
		cfg.Log.Frames = true
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}
