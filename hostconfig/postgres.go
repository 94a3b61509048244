package hostconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ZaguanLabs/webproxy"
)

const hostQuery = `
	SELECT hostname, origin_base_url, source_lang, target_lang,
	       skip_words, skip_paths, skip_selectors,
	       translate_paths, cache_disabled_until
	FROM websites
	WHERE lower(hostname) = lower($1)`

// PostgresResolver loads host configurations from a websites table.
type PostgresResolver struct {
	db *sql.DB
}

// NewPostgresResolver opens a connection pool for the given DSN and
// verifies connectivity before returning.
func NewPostgresResolver(dsn string) (*PostgresResolver, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("hostconfig: open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("hostconfig: ping postgres: %w", err)
	}
	return &PostgresResolver{db: db}, nil
}

// NewPostgresResolverFromDB wraps an existing pool, e.g. for tests.
func NewPostgresResolverFromDB(db *sql.DB) *PostgresResolver {
	return &PostgresResolver{db: db}
}

func (r *PostgresResolver) Resolve(ctx context.Context, hostname string) (*webproxy.HostConfig, error) {
	var cfg webproxy.HostConfig
	var disabledUntil sql.NullTime

	err := r.db.QueryRowContext(ctx, hostQuery, hostname).Scan(
		&cfg.Hostname,
		&cfg.OriginBaseURL,
		&cfg.SourceLang,
		&cfg.TargetLang,
		pq.Array(&cfg.SkipWords),
		pq.Array(&cfg.SkipPaths),
		pq.Array(&cfg.SkipSelectors),
		&cfg.TranslatePaths,
		&disabledUntil,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("hostconfig: query host %q: %w", hostname, err)
	}
	if disabledUntil.Valid {
		cfg.CacheDisabledUntil = disabledUntil.Time
	}
	return &cfg, nil
}

func (r *PostgresResolver) Close() error {
	return r.db.Close()
}
