// airdrums plays a virtual drum kit from tracked fingertips and streams the
// reactive visual state to a monitor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-airdrums/internal/app"
	"github.com/teslashibe/go-airdrums/internal/config"
	"github.com/teslashibe/go-airdrums/internal/log"
	"github.com/teslashibe/go-airdrums/pkg/audioio"
)

func main() {
	configPath := flag.String("config", config.Path(""), "YAML config file (overrides AIRDRUMS_CONFIG)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFile := flag.String("log-file", "airdrums.log", "Log file used while the terminal preview is on")
	preview := flag.Bool("preview", false, "Draw the kit in the terminal; the mouse plays it")
	listen := flag.Bool("listen", false, "Start audio analysis at startup")
	unlock := flag.Bool("unlock", false, "Open audio output at startup")
	port := flag.String("port", "", "Monitor port (overrides AIRDRUMS_WEB_PORT)")
	noWeb := flag.Bool("no-web", false, "Disable the monitor server")
	tracker := flag.String("tracker", "", "Hand tracker websocket URL")
	device := flag.String("device", "", "Capture device: a .wav file or an RTP listen address")
	printConfig := flag.Bool("print-config", false, "Print the effective config and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *port != "" {
		cfg.Web.Port = *port
	}
	if *noWeb {
		cfg.Web.Enabled = false
	}
	if *tracker != "" {
		cfg.Landmarks.URL = *tracker
	}
	if *device != "" {
		cfg.Audio.Device = *device
		cfg.Audio.Backend = audioio.BackendAuto
	}

	if *printConfig {
		data, err := config.Marshal(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	if *preview {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.InitWriter(cfg.LogLevel, f)
	} else {
		log.Init(cfg.LogLevel)
	}
	logger := log.Component("main")

	a, err := app.New(cfg, app.Options{Preview: *preview, Listen: *listen, Unlock: *unlock}, log.L())
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}
	if err := a.Init(); err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("airdrums running",
		"zones", len(cfg.Engine.Zones.Layout),
		"monitor", cfg.Web.Enabled,
		"tracker", cfg.Landmarks.URL != "",
		"preview", *preview)

	if err := a.Run(ctx); err != nil {
		logger.Error("runtime error", "error", err)
		a.Shutdown()
		os.Exit(1)
	}
}
