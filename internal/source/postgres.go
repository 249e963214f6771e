package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/doorsync/internal/config"
	"github.com/JonMunkholm/doorsync/internal/core"
)

// PostgresSource reads the tables from a staging table shaped
//
//	CREATE TABLE doorsync_rows (
//	    sheet    text    NOT NULL,
//	    position integer NOT NULL,
//	    cells    text[]  NOT NULL,
//	    PRIMARY KEY (sheet, position)
//	);
//
// Directory, Codes and Deleted are values of the sheet column.
type PostgresSource struct {
	pool      *pgxpool.Pool
	query     string
	directory string
	codes     string
	deleted   string
	skipRows  int
}

// NewPostgresSource creates a source reading p.Table through pool.
func NewPostgresSource(pool *pgxpool.Pool, p config.SourceProfile) *PostgresSource {
	return &PostgresSource{
		pool:      pool,
		query:     rowsQuery(p.Table),
		directory: p.Directory,
		codes:     p.Codes,
		deleted:   p.Deleted,
		skipRows:  p.SkipRows,
	}
}

// rowsQuery builds the select for table, which may be schema-qualified.
func rowsQuery(table string) string {
	ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	return fmt.Sprintf("SELECT cells FROM %s WHERE sheet = $1 ORDER BY position", ident)
}

// Fetch implements RowSource.
func (s *PostgresSource) Fetch(ctx context.Context) (core.Tables, error) {
	var tables core.Tables
	for _, t := range targets(&tables, s.directory, s.codes, s.deleted) {
		if t.ref == "" {
			continue
		}
		rows, err := s.sheetRows(ctx, t.ref)
		if err != nil {
			return core.Tables{}, fetchError(t.name, err)
		}
		t.fill(rows, s.skipRows, 0)
	}
	return tables, nil
}

func (s *PostgresSource) sheetRows(ctx context.Context, sheet string) ([]core.Row, error) {
	rows, err := s.pool.Query(ctx, s.query, sheet)
	if err != nil {
		return nil, err
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Row, error) {
		var cells []string
		err := row.Scan(&cells)
		return core.Row(cells), err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// NewPool connects to the database described by cfg and verifies the
// connection.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
