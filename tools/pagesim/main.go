//go:build linux && amd64

// Command pagesim runs the kernel page pool on the host. Emulated cores are
// OS threads working on an anonymous memory mapping; every page handed out or
// returned is checked and the pool invariants are verified at the end of the
// run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"
)

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[pagesim] error: %s\n", err.Error())
	os.Exit(1)
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		exit(err)
	}

	log, err := newLogger(cfg.Dev)
	if err != nil {
		exit(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := newMetrics()
	_, err = Run(ctx, cfg, log, m)
	if err == nil && opts.metricsFile != "" {
		err = m.writeTo(opts.metricsFile)
	}

	if err != nil {
		log.Error("simulation failed", zap.Error(err))
		log.Sync()
		stop()
		os.Exit(1)
	}

	log.Sync()
}
