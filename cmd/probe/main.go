package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/cnoe-io/platform-api-gateway/internal/probe"
	"github.com/cnoe-io/platform-api-gateway/pkg/logger"
)

const defaultRunTimeout = 5 * time.Minute

// Exit codes.
const (
	exitOK        = 0
	exitViolation = 1
	exitError     = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("probe", pflag.ContinueOnError)
	cfg := &probe.Config{}
	fs.StringVar(&cfg.BaseURL, "url", probe.DefaultBaseURL, "base URL of the gateway")
	fs.IntVar(&cfg.Requests, "requests", probe.DefaultRequests, "total number of requests to send")
	fs.IntVar(&cfg.Workers, "workers", probe.DefaultWorkers(), "number of concurrent workers")
	fs.DurationVar(&cfg.Timeout, "timeout", probe.DefaultTimeout, "per-request timeout")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every failed check")
	logFormat := fs.String("log-format", logger.FormatText, "log output format: text|json")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitError
	}

	if err := logger.Init(logger.WithFormat(*logFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	rep, err := probe.Run(ctx, cfg)
	if rep != nil {
		os.Stdout.WriteString(rep.Table())
	}
	if err != nil {
		os.Stderr.WriteString(color.New(color.Bold, color.FgHiRed).Sprint("FAIL") + " " + err.Error() + "\n")
		if errors.Is(err, probe.ErrContractViolation) {
			return exitViolation
		}
		return exitError
	}
	os.Stdout.WriteString(color.New(color.Bold, color.FgHiGreen).Sprint("PASS") + " contract holds\n")
	return exitOK
}
