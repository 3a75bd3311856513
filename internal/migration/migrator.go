// Package migration owns the sketches schema. SQL files are embedded and
// applied with goose.
package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/config"
	"github.com/Additional-Code/sketchbook/internal/database"
)

//go:embed sql/*.sql
var embedded embed.FS

var Module = fx.Provide(New)

// Migrator applies and rolls back the embedded migrations.
type Migrator struct {
	provider *goose.Provider
	logger   *zap.Logger
}

// Status is one migration and whether it is applied.
type Status struct {
	Version int64
	Path    string
	Applied bool
}

// Option adjusts a Migrator.
type Option func(*options)

type options struct {
	notifyChannel string
}

// WithNotifyChannel names the channel the postgres change trigger notifies.
func WithNotifyChannel(channel string) Option {
	return func(o *options) {
		if channel != "" {
			o.notifyChannel = channel
		}
	}
}

func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	return NewForDB(cfg.Database.Driver, conns.Writer, logger, WithNotifyChannel(cfg.Feed.Channel))
}

// NewForDB builds a migrator for an already opened handle. On postgres it
// also installs the change trigger that feeds LISTEN/NOTIFY.
func NewForDB(driver string, db *bun.DB, logger *zap.Logger, opts ...Option) (*Migrator, error) {
	o := options{notifyChannel: DefaultNotifyChannel}
	for _, opt := range opts {
		opt(&o)
	}

	dialect, err := gooseDialect(driver)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, errors.New("migrator needs an open database")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	files, err := fs.Sub(embedded, "sql")
	if err != nil {
		return nil, err
	}
	var providerOpts []goose.ProviderOption
	if dialect == goose.DialectPostgres {
		providerOpts = append(providerOpts, goose.WithGoMigrations(notifyMigration(o.notifyChannel)))
	}
	provider, err := goose.NewProvider(dialect, db.DB, files, providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{provider: provider, logger: logger}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		m.logger.Info("schema up to date")
		return nil
	}
	for _, r := range results {
		m.logger.Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.Duration("took", r.Duration))
	}
	return nil
}

// Down rolls back steps migrations, at least one. all rolls back everything.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if all {
		results, err := m.provider.DownTo(ctx, 0)
		if err != nil {
			return err
		}
		m.logger.Info("migrations rolled back", zap.Int("count", len(results)))
		return nil
	}

	if steps <= 0 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		r, err := m.provider.Down(ctx)
		if errors.Is(err, goose.ErrNoNextVersion) {
			m.logger.Info("nothing left to roll back", zap.Int("rolled_back", i))
			return nil
		}
		if err != nil {
			return err
		}
		m.logger.Info("migration rolled back", zap.Int64("version", r.Source.Version))
	}
	return nil
}

// Status lists every embedded migration in version order.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Status{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

func gooseDialect(driver string) (goose.Dialect, error) {
	switch driver {
	case "postgres":
		return goose.DialectPostgres, nil
	case "mysql":
		return goose.DialectMySQL, nil
	case "sqlite":
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("no migrations for database driver %s", driver)
	}
}
