package main

import (
	"fmt"
	"io"
	"strings"

	getopt "github.com/pborman/getopt/v2"
	"github.com/pborman/options"

	"github.com/vnykmshr/chunkflow/pkg/pipeline"
	"github.com/vnykmshr/chunkflow/pkg/scheduling/scheduler"
)

type cliConfig struct {
	optSet *getopt.Set

	Help       bool   `getopt:"-h --help             Display this help"`
	HelpEnv    bool   `getopt:"--help-env            List the CHUNKFLOW_* environment variables"`
	ListStages bool   `getopt:"--list-stages         List the stage names a chain descriptor may use"`
	Chain      string `getopt:"-c --chain=path       Chain descriptor to run"`
	Schedule   string `getopt:"-s --schedule=expr    Re-run the chain on a cron schedule (e.g. '@every 10m') until interrupted"`
}

// parseArgs parses argv, program name included. Errors are collected so
// they can be shown all at once.
func parseArgs(argv []string) (*cliConfig, []string) {
	cfg := &cliConfig{}

	// operate on a private set so argv can be parsed more than once
	o := getopt.New()
	if err := options.RegisterSet("", cfg, o); err != nil {
		return nil, []string{fmt.Sprintf("option set registration failed: %s", err)}
	}
	o.SetParameters("")
	cfg.optSet = o

	if err := o.Getopt(argv, nil); err != nil {
		return cfg, []string{err.Error()}
	}
	if cfg.Help || cfg.HelpEnv || cfg.ListStages {
		return cfg, nil
	}

	var errs []string
	if args := o.Args(); len(args) > 0 {
		errs = append(errs, fmt.Sprintf("unexpected arguments: %s", strings.Join(args, " ")))
	}
	if cfg.Chain == "" {
		errs = append(errs, "--chain is required")
	}
	if cfg.Schedule != "" {
		if err := scheduler.ValidateExpression(cfg.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("invalid --schedule '%s': %s", cfg.Schedule, err))
		}
	}
	return cfg, errs
}

func (cfg *cliConfig) printUsage(out io.Writer) {
	cfg.optSet.PrintUsage(out)
	fmt.Fprintf(out, "\nAvailable stages: %s\n", strings.Join(pipeline.DefaultRegistry().Names(), ", "))
}
