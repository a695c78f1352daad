// SPDX-License-Identifier: MIT

// Command eumfa runs material-flow sub-models and the combined
// bottom-up/top-down pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/lifetime"
	"github.com/katalvlaran/eumfa/models"
	"github.com/katalvlaran/eumfa/pipeline"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(ctx context.Context, args []string) error
}

var commands = []command{
	{
		name:  "run",
		short: "Run one sub-model",
		usage: "eumfa run <model.yml>",
		long: `Run the sub-model named by model_class in the YAML file.

Dimensions are read from {input_data_path}/dimensions, parameters from
{input_data_path}/datasets. Flows, stocks and the manifest are exported
to {output_path}/export according to do_export.
`,
		run: runModel,
	},
	{
		name:  "combine",
		short: "Run the combined bottom-up/top-down pipeline",
		usage: "eumfa combine <pipeline.yml>",
		long: `Run the combined pipeline: bottom-up sub-models, remapping,
residual projection, totals, flows sub-models and the historic/future
combination, for every enabled target material.

Exits 1 on the first failing stage; files of earlier stages remain.
`,
		run: runCombine,
	},
	{
		name:  "models",
		short: "List model classes",
		usage: "eumfa models",
		long:  "List the model_class values accepted by 'eumfa run'.\n",
		run:   runModels,
	},
	{
		name:  "lifetimes",
		short: "List lifetime models",
		usage: "eumfa lifetimes",
		long:  "List the lifetime_model_name values accepted in customization.\n",
		run:   runLifetimes,
	},
}

var stdout io.Writer = os.Stdout

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "eumfa - dynamic material-flow analysis\n\n")
	fmt.Fprintf(w, "Usage:\n  eumfa <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'eumfa help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "eumfa: unknown command %q\n\nRun 'eumfa help' for usage.\n", name)
}

func dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(stdout, args[1])
		} else {
			printUsage(stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(ctx, args[1:])
		}
	}

	return fmt.Errorf("unknown command %q\n\nRun 'eumfa help' for usage.", args[0])
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := dispatch(ctx, os.Args[1:])
	stop()
	if err == nil {
		return
	}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		slog.Error("combined run failed", "stage", se.Stage, "target", se.Target, "path", se.Path, "err", se.Err)
	} else {
		fmt.Fprintf(os.Stderr, "eumfa: %v\n", err)
	}
	os.Exit(1)
}

// newLogger builds the process logger at the configured level and makes
// it the default.
func newLogger(level string) (*slog.Logger, error) {
	lvl, err := config.SlogLevel(level)
	if err != nil {
		return nil, err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)

	return log, nil
}

// ---------------------------------------------------------------------------
// run
// ---------------------------------------------------------------------------

func runModel(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: eumfa run <model.yml>")
	}
	cfg, err := config.LoadModel(args[0])
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	res, err := models.Run(ctx, cfg, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s run %s: %d flows, %d imbalanced processes\n",
		res.Class, res.RunID, len(res.Flows()), len(res.Imbalances))

	return nil
}

// ---------------------------------------------------------------------------
// combine
// ---------------------------------------------------------------------------

func runCombine(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: eumfa combine <pipeline.yml>")
	}
	cfg, err := pipeline.LoadConfig(args[0])
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Settings().Logging.Level)
	if err != nil {
		return err
	}
	rep, err := pipeline.New(cfg, pipeline.WithLogger(log)).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "combined run %s: %d files written\n", rep.RunID, len(rep.Written))
	for _, p := range rep.Written {
		fmt.Fprintf(stdout, "  %s\n", p)
	}

	return nil
}

// ---------------------------------------------------------------------------
// models, lifetimes
// ---------------------------------------------------------------------------

func runModels(_ context.Context, _ []string) error {
	for _, c := range models.Classes() {
		fmt.Fprintln(stdout, c)
	}

	return nil
}

func runLifetimes(_ context.Context, _ []string) error {
	for _, n := range lifetime.Names() {
		fmt.Fprintln(stdout, n)
	}

	return nil
}
