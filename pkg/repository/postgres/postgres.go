package postgres

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/interfaces"
	"github.com/secmon-lab/hazop/pkg/utils/logging"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type Postgres struct {
	pool *pgxpool.Pool
}

var _ interfaces.Repository = &Postgres{}

// Config holds connection pool settings. Zero values fall back to defaults.
type Config struct {
	URL             string `masq:"secret"`
	Schema          string // search_path for every connection; empty keeps the server default
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// New connects to PostgreSQL and verifies the connection
func New(ctx context.Context, cfg *Config) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse database URL")
	}

	if cfg.Schema != "" {
		poolConfig.ConnConfig.RuntimeParams["search_path"] = cfg.Schema
	}

	poolConfig.MaxConns = cfg.MaxConnections
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 25
	}
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	if poolConfig.MaxConnLifetime == 0 {
		poolConfig.MaxConnLifetime = time.Hour
	}
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	if poolConfig.MaxConnIdleTime == 0 {
		poolConfig.MaxConnIdleTime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping database")
	}

	return &Postgres{pool: pool}, nil
}

// Migrate applies pending schema migrations. It is safe to call repeatedly.
func (p *Postgres) Migrate(ctx context.Context) error {
	logger := logging.From(ctx)

	db := stdlib.OpenDBFromPool(p.pool)
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close migration connection", "error", err)
		}
	}()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return goerr.Wrap(err, "failed to create migration driver")
	}
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return goerr.Wrap(err, "failed to open migration source")
	}
	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return goerr.Wrap(err, "failed to create migration instance")
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No migrations to apply (database up-to-date)")
			return nil
		}
		return goerr.Wrap(err, "failed to run migrations")
	}

	version, _, _ := m.Version()
	logger.Info("Applied migrations successfully", "version", version)
	return nil
}

func (p *Postgres) Study() interfaces.StudyRepository {
	return &studyRepository{pool: p.pool}
}

func (p *Postgres) Node() interfaces.NodeRepository {
	return &nodeRepository{pool: p.pool}
}

func (p *Postgres) Deviation() interfaces.DeviationRepository {
	return &deviationRepository{pool: p.pool}
}

func (p *Postgres) Recommendation() interfaces.RecommendationRepository {
	return &recommendationRepository{pool: p.pool}
}

func (p *Postgres) Assignment() interfaces.AssignmentRepository {
	return &assignmentRepository{pool: p.pool}
}

func (p *Postgres) Challenge() interfaces.ChallengeRepository {
	return &challengeRepository{pool: p.pool}
}

func (p *Postgres) Employee() interfaces.EmployeeRepository {
	return &employeeRepository{pool: p.pool}
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
