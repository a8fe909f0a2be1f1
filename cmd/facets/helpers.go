// Shared helpers for facets CLI commands.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/facets/internal/access"
	"github.com/mesh-intelligence/facets/internal/engine"
	"github.com/mesh-intelligence/facets/internal/logging"
	"github.com/mesh-intelligence/facets/internal/store"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// errResultFailed is returned after a failed result has been printed.
var errResultFailed = errors.New("request failed")

// session is an attached backend with the engine built over it.
type session struct {
	backend *store.Backend
	actions *engine.Actions
	logger  *zap.Logger
	ctx     context.Context
}

// openSession attaches the configured backend. The caller must defer
// Close.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := backendConfig(settings)
	if err != nil {
		return nil, sysErr(err)
	}
	logger, err := logging.New(settings.GetString(cfgKeyLogLevel))
	if err != nil {
		return nil, sysErr(err)
	}
	backend := store.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, sysErr(fmt.Errorf("attach backend: %w", err))
	}
	svc := engine.New(engine.Stores{
		Definitions: backend.Definitions(),
		Properties:  backend.Properties(),
		Links:       backend.Links(),
		Members:     backend.Members(),
		Records:     backend.Records(),
	}, engine.WithLogger(logger))

	if user := currentUser(settings); user != "" {
		ctx = access.WithCaller(ctx, user)
	}
	logger.Debug("session opened", zap.String("backend", cfg.Backend), zap.String("data_dir", cfg.DataDir))
	return &session{backend: backend, actions: engine.NewActions(svc), logger: logger, ctx: ctx}, nil
}

// Close detaches the backend and flushes the logger.
func (s *session) Close() error {
	_ = s.logger.Sync()
	return s.backend.Detach()
}

// withSession opens a session, runs fn and closes the session.
func withSession(ctx context.Context, fn func(s *session) error) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// printResult writes r as JSON and returns errResultFailed when r carries an
// error.
func printResult[T any](w io.Writer, r types.Result[T]) error {
	var (
		out []byte
		err error
	)
	if flagJSON {
		out, err = json.Marshal(r)
	} else {
		out, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return sysErr(fmt.Errorf("marshal result: %w", err))
	}
	fmt.Fprintln(w, string(out))
	if !r.Ok() {
		return errResultFailed
	}
	return nil
}

// printOutcome prints v, or err as a failed result.
func printOutcome[T any](w io.Writer, v T, err error) error {
	if err != nil {
		return printResult(w, types.Fail[T](err))
	}
	return printResult(w, types.OK(v))
}

// parseEntityKey parses "<type>:<id>".
func parseEntityKey(s string) (types.EntityKey, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok {
		return types.EntityKey{}, fmt.Errorf("entity %q must be <type>:<id>", s)
	}
	key := types.EntityKey{Type: types.EntityType(typ), ID: id}
	return key, key.Validate()
}

// parseValue decodes s as JSON, falling back to the raw string.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// parseEntityTypes splits a comma-separated list of entity types.
func parseEntityTypes(s string) []types.EntityType {
	var out []types.EntityType
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, types.EntityType(part))
		}
	}
	return out
}

// parseOptions turns "label" or "label=color" arguments into options.
func parseOptions(args []string) []types.PropertyOption {
	opts := make([]types.PropertyOption, 0, len(args))
	for _, a := range args {
		label, color, _ := strings.Cut(a, "=")
		opts = append(opts, types.PropertyOption{Label: label, Color: color})
	}
	return opts
}
