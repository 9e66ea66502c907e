// tripctl is an operator tool for the trip store. It works directly against
// the configured backend (the trip file or Postgres) without the HTTP server.
//
//	tripctl [global flags] <command> [args]
//
// Trip and card inputs may be JSON or YAML.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/pkordes/tripplanner/internal/bootstrap"
	"github.com/pkordes/tripplanner/internal/config"
	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/service"
)

func main() {
	_ = godotenv.Load()
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globals are the flags accepted before the command name.
type globals struct {
	dataFile string
	backend  string
	actor    string
	output   string
	verbose  bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var g globals
	flagSet := pflag.NewFlagSet("tripctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&g.dataFile, "data", "", "trip collection file (overrides DATA_FILE)")
	flagSet.StringVar(&g.backend, "backend", "", "store backend: file or postgres (overrides STORE_BACKEND)")
	flagSet.StringVar(&g.actor, "as", "", "act as this user id")
	flagSet.StringVarP(&g.output, "output", "o", "json", "output format: json or yaml")
	flagSet.BoolVarP(&g.verbose, "verbose", "v", false, "log store activity to stderr")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stderr, flagSet)
		return errors.New("missing command")
	}
	name, cmdArgs := rest[0], rest[1:]

	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	if g.output != "json" && g.output != "yaml" {
		return fmt.Errorf("--output must be json or yaml, got %q", g.output)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if g.dataFile != "" {
		cfg.DataFile = g.dataFile
	}
	if g.backend != "" {
		cfg.StoreBackend = strings.ToLower(g.backend)
		if err := cfg.ValidateStore(); err != nil {
			return err
		}
	}

	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	env := &env{cfg: cfg, out: stdout, format: g.output}
	if cmd.needsStore {
		store, closeStore, err := bootstrap.OpenStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()
		env.trips = service.NewTripService(store, logger)
	}
	if g.actor != "" {
		ctx = domain.WithActor(ctx, g.actor)
	}
	return cmd.run(ctx, env, cmdArgs)
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `tripctl manages trips and itineraries in the configured store.

Usage:
  tripctl [flags] <command> [args]

Commands:
  list                              list trips, newest first
  get <id>                          show one trip
  create -f <file>                  create a trip from a JSON or YAML file
  update <id> -f <file>             merge fields into a trip
  generate <id>                     build the default itinerary if missing
  patch-card <id> <card> [-f file] [--set key=value ...]
                                    edit one itinerary card
  billing <id> <status>             apply a billing status change
  export                            one row per itinerary card
  token <user> [--ttl 24h]          issue a bearer token (needs JWT_SECRET)

Flags:
%s`, flagSet.FlagUsages())
}
