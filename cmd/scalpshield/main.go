package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hejijunhao/scalpshield/internal/config"
	"github.com/hejijunhao/scalpshield/internal/engine"
	"github.com/hejijunhao/scalpshield/internal/engine/classifier"
	"github.com/hejijunhao/scalpshield/internal/ingest"
	"github.com/hejijunhao/scalpshield/internal/logging"
	"github.com/hejijunhao/scalpshield/internal/server"
)

const usage = `usage:
  scalpshield serve              run the HTTP scoring API
  scalpshield score <file.csv>   score a local CSV and print JSON to stdout
      -pretty                    indent the JSON output
`

func main() {
	cfg := config.Load()
	logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "serve":
		runServe(cfg)
	case "score":
		runScore(cfg, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

// loadScorer loads the model once at process start. In serve mode a load
// failure is reported per request as model_not_loaded rather than killing
// the process, so a misconfigured deployment is observable over HTTP.
func loadScorer(cfg config.Config) classifier.Scorer {
	scorer, err := classifier.NewONNX(cfg.Model.Path, cfg.Model.RuntimeLibPath)
	if err != nil {
		slog.Error("model load failed", "path", cfg.Model.Path, "error", err)
		return nil
	}
	slog.Info("model loaded", "path", cfg.Model.Path)
	return scorer
}

func runServe(cfg config.Config) {
	scorer := loadScorer(cfg)
	if scorer != nil {
		defer scorer.Close()
	}

	srv := server.New(engine.New(scorer), server.Config{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RequestsPerSec: cfg.Server.RequestsPerSec,
		Burst:          cfg.Server.Burst,
	})

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Server.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete", "error", err)
		}
	}
}

func runScore(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	pretty := fs.Bool("pretty", false, "indent JSON output")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	scorer, err := classifier.NewONNX(cfg.Model.Path, cfg.Model.RuntimeLibPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scalpshield: %v\n", err)
		os.Exit(1)
	}
	defer scorer.Close()

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "scalpshield: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	ds, err := ingest.ReadCSV(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scalpshield: %v\n", err)
		os.Exit(1)
	}

	resp, err := engine.New(scorer).Process(context.Background(), ds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scalpshield: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "scalpshield: %v\n", err)
		os.Exit(1)
	}
}
