package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/pkordes/tripplanner/internal/auth"
	"github.com/pkordes/tripplanner/internal/config"
	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/service"
)

type env struct {
	cfg    config.Config
	trips  *service.TripService
	out    io.Writer
	format string
}

type command struct {
	needsStore bool
	run        func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"list":       {needsStore: true, run: listCmd},
	"get":        {needsStore: true, run: getCmd},
	"create":     {needsStore: true, run: createCmd},
	"update":     {needsStore: true, run: updateCmd},
	"generate":   {needsStore: true, run: generateCmd},
	"patch-card": {needsStore: true, run: patchCardCmd},
	"billing":    {needsStore: true, run: billingCmd},
	"export":     {needsStore: true, run: exportCmd},
	"token":      {run: tokenCmd},
}

func listCmd(ctx context.Context, e *env, args []string) error {
	if err := exactArgs("list", args, 0); err != nil {
		return err
	}
	trips, err := e.trips.List(ctx)
	if err != nil {
		return err
	}
	return e.print(trips)
}

func getCmd(ctx context.Context, e *env, args []string) error {
	if err := exactArgs("get <id>", args, 1); err != nil {
		return err
	}
	trip, err := e.trips.GetByID(ctx, args[0])
	if err != nil {
		return err
	}
	return e.print(trip)
}

func createCmd(ctx context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
	file := fs.StringP("file", "f", "", "trip document (JSON or YAML, - for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" || fs.NArg() != 0 {
		return errors.New("usage: create -f <file>")
	}
	raw, err := readDocument(*file)
	if err != nil {
		return err
	}

	var trip domain.Trip
	if err := json.Unmarshal(raw, &trip); err != nil {
		return fmt.Errorf("decode trip: %w", err)
	}
	trip.ID = ""
	trip.Itinerary = nil

	created, err := e.trips.Create(ctx, trip)
	if err != nil {
		return err
	}
	return e.print(created)
}

func updateCmd(ctx context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("update", pflag.ContinueOnError)
	file := fs.StringP("file", "f", "", "fields to merge (JSON or YAML, - for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" || fs.NArg() != 1 {
		return errors.New("usage: update <id> -f <file>")
	}
	raw, err := readDocument(*file)
	if err != nil {
		return err
	}
	patch, err := domain.ParseTripPatch(raw)
	if err != nil {
		return err
	}

	updated, err := e.trips.Update(ctx, fs.Arg(0), patch)
	if err != nil {
		return err
	}
	return e.print(updated)
}

func generateCmd(ctx context.Context, e *env, args []string) error {
	if err := exactArgs("generate <id>", args, 1); err != nil {
		return err
	}
	trip, err := e.trips.GenerateItinerary(ctx, args[0])
	if err != nil {
		return err
	}
	return e.print(trip)
}

func patchCardCmd(ctx context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("patch-card", pflag.ContinueOnError)
	file := fs.StringP("file", "f", "", "card fields (JSON or YAML, - for stdin)")
	sets := fs.StringArray("set", nil, "field=value; value is parsed as YAML (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: patch-card <id> <card> [-f file] [--set key=value ...]")
	}

	fields := map[string]any{}
	if *file != "" {
		raw, err := readDocument(*file)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("card fields must be an object: %w", err)
		}
	}
	for _, kv := range *sets {
		key, value, err := parseSet(kv)
		if err != nil {
			return err
		}
		fields[key] = value
	}

	card, err := e.trips.PatchCard(ctx, fs.Arg(0), fs.Arg(1), fields)
	if err != nil {
		return err
	}
	return e.print(card)
}

func billingCmd(ctx context.Context, e *env, args []string) error {
	if err := exactArgs("billing <id> <status>", args, 2); err != nil {
		return err
	}
	trip, err := e.trips.ApplyBillingEvent(ctx, args[0], domain.BillingStatus(args[1]))
	if err != nil {
		return err
	}
	return e.print(trip)
}

func exportCmd(ctx context.Context, e *env, args []string) error {
	if err := exactArgs("export", args, 0); err != nil {
		return err
	}
	rows, err := e.trips.Export(ctx)
	if err != nil {
		return err
	}
	return e.print(rows)
}

func tokenCmd(_ context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: token <user> [--ttl 24h]")
	}
	if e.cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	token, err := auth.NewVerifier(e.cfg.JWTSecret).Issue(fs.Arg(0), *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.out, token)
	return err
}

func exactArgs(usage string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

// parseSet splits "key=value" and decodes value as a YAML scalar or flow
// collection, so --set estimatedCost=80 is a number and
// --set activities='[Louvre, Orsay]' is a list.
func parseSet(kv string) (string, any, error) {
	key, value, ok := strings.Cut(kv, "=")
	if !ok || key == "" {
		return "", nil, fmt.Errorf("--set %q: want key=value", kv)
	}
	var v any
	if err := yaml.Unmarshal([]byte(value), &v); err != nil {
		return "", nil, fmt.Errorf("--set %s: %w", key, err)
	}
	if v == nil && value != "" && value != "null" && value != "~" {
		v = value
	}
	return key, v, nil
}

// readDocument reads a JSON or YAML document from path ("-" is stdin) and
// returns it as JSON. YAML is a superset of JSON, so both go through the
// YAML decoder.
func readDocument(path string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, fmt.Errorf("%s: document must be a mapping", path)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// print writes v as indented JSON or, with -o yaml, as YAML converted from
// the same JSON so field names match the API.
func (e *env) print(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if e.format != "yaml" {
		_, err = fmt.Fprintf(e.out, "%s\n", raw)
		return err
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(e.out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
