// Package store implements the relational storage backend for facets:
// property definitions and options, entity property values, entity links,
// inherited-visibility flags, and the record tables (workspaces, projects,
// tabs, blocks, tasks, subtasks, timeline events, tables) the engine reads
// through types.RecordStore.
//
// The same table code runs on SQLite (modernc.org/sqlite) and PostgreSQL
// (pgx through database/sql); the dialect only rebinds placeholders and
// classifies unique violations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// dbFileName is the SQLite database file created inside DataDir.
const dbFileName = "facets.db"

// timeLayout is a fixed-width UTC layout so stored timestamps sort
// lexicographically in creation order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Backend owns the database handle and hands out table accessors.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	dialect  dialect
}

// NewBackend creates a new backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database described by config and creates the schema if it
// does not exist. For SQLite, DataDir is created when missing.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	d := dialectFor(config.Backend)
	dsn := config.DSN
	if config.Backend == types.BackendSQLite {
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return err
		}
		dsn = filepath.Join(dataDir, dbFileName) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return fmt.Errorf("opening %s database: %w", config.Backend, err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging %s database: %w", config.Backend, err)
	}
	for _, stmt := range schemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.dialect = d
	b.attached = true
	return nil
}

// Detach releases the database handle. Detach is idempotent.
// After Detach, all operations return ErrBackendDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	return nil
}

// Config returns the configuration the backend was attached with.
func (b *Backend) Config() types.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// Definitions returns the property definition table.
func (b *Backend) Definitions() types.DefinitionStore { return &definitionsTable{backend: b} }

// Properties returns the entity property value table.
func (b *Backend) Properties() types.PropertyStore { return &propertiesTable{backend: b} }

// Links returns the entity link table.
func (b *Backend) Links() types.LinkStore { return &linksTable{backend: b} }

// Members returns the workspace membership table.
func (b *Backend) Members() *MembersTable { return &MembersTable{backend: b} }

// Records returns the record tables.
func (b *Backend) Records() *RecordsTable { return &RecordsTable{backend: b} }

// runner binds a *sql.DB or *sql.Tx to the backend's dialect.
type runner struct {
	q interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
		QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	}
	d dialect
}

func (r runner) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.q.ExecContext(ctx, r.d.rebind(query), args...)
}

func (r runner) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.q.QueryContext(ctx, r.d.rebind(query), args...)
}

func (r runner) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.q.QueryRowContext(ctx, r.d.rebind(query), args...)
}

// conn returns a non-transactional runner.
// Returns ErrBackendDetached if the backend is not attached.
func (b *Backend) conn() (runner, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return runner{}, types.ErrBackendDetached
	}
	return runner{q: b.db, d: b.dialect}, nil
}

// withTx runs fn inside a transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
func (b *Backend) withTx(ctx context.Context, fn func(r runner) error) error {
	b.mu.RLock()
	if !b.attached {
		b.mu.RUnlock()
		return types.ErrBackendDetached
	}
	db, d := b.db, b.dialect
	b.mu.RUnlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(runner{q: tx, d: d}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// newID generates a UUID v7 for entity ids.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
