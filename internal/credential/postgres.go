package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/blueberrycongee/copydesk/internal/metrics"
)

// poolLabel names this store in pool metrics.
const poolLabel = "workspace_credentials"

// PostgresStore implements Store over the workspace_credentials table.
// Secrets are stored sealed by a SecretCipher.
//
//	CREATE TABLE workspace_credentials (
//	    workspace_id  TEXT NOT NULL,
//	    provider      TEXT NOT NULL,
//	    secret_sealed TEXT NOT NULL,
//	    is_valid      BOOLEAN NOT NULL DEFAULT TRUE,
//	    last_used_at  TIMESTAMPTZ,
//	    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    PRIMARY KEY (workspace_id, provider)
//	);
type PostgresStore struct {
	db     *sql.DB
	cipher *SecretCipher
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// DefaultPostgresConfig returns sensible pool defaults.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		MaxOpenConns: 10,
		MaxIdleConns: 2,
		ConnLifetime: 5 * time.Minute,
	}
}

// NewPostgresStore opens the database and verifies connectivity.
func NewPostgresStore(cfg *PostgresConfig, c *SecretCipher) (*PostgresStore, error) {
	if c == nil {
		return nil, errors.New("secret cipher is required")
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewPostgresStoreFromDB(db, c), nil
}

// NewPostgresStoreFromDB wraps an existing handle.
func NewPostgresStoreFromDB(db *sql.DB, c *SecretCipher) *PostgresStore {
	return &PostgresStore{db: db, cipher: c}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WatchPool publishes the connection pool statistics now and then every
// interval until ctx is done or the returned func is called.
func (s *PostgresStore) WatchPool(ctx context.Context, interval time.Duration) context.CancelFunc {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	s.publishPool()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.publishPool()
			}
		}
	}()
	return cancel
}

func (s *PostgresStore) publishPool() {
	metrics.UpdateDBPoolStats(poolLabel, s.db.Stats())
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// GetWorkspaceCredential implements Store.
func (s *PostgresStore) GetWorkspaceCredential(ctx context.Context, workspaceID string, provider Provider) (*Credential, error) {
	query := `
		SELECT secret_sealed, is_valid, last_used_at
		FROM workspace_credentials
		WHERE workspace_id = $1 AND provider = $2`

	var sealed string
	var valid bool
	var lastUsedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, workspaceID, string(provider)).Scan(&sealed, &valid, &lastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query workspace credential: %w", err)
	}

	secret, err := s.cipher.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("open workspace credential: %w", err)
	}

	cred := &Credential{
		Provider: provider,
		Scope:    workspaceID,
		Secret:   secret,
		Hint:     Hint(secret),
		IsValid:  valid,
	}
	if lastUsedAt.Valid {
		cred.LastUsedAt = &lastUsedAt.Time
	}
	return cred, nil
}

// SaveWorkspaceCredential upserts the credential for (workspace, provider).
// The settings surface calls this; the generation path never writes.
func (s *PostgresStore) SaveWorkspaceCredential(ctx context.Context, workspaceID string, provider Provider, secret string) error {
	sealed, err := s.cipher.Seal(secret)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO workspace_credentials (workspace_id, provider, secret_sealed, is_valid, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW())
		ON CONFLICT (workspace_id, provider)
		DO UPDATE SET secret_sealed = EXCLUDED.secret_sealed, is_valid = TRUE, updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query, workspaceID, string(provider), sealed); err != nil {
		return fmt.Errorf("save workspace credential: %w", err)
	}
	return nil
}
