package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ticvision/ticvision/internal/models"
)

const oidcColumns = `id, provider, issuer, domain, client_id, client_secret, redirect_uri, jwks_url, created_at, updated_at`

// OIDCConfigRepository handles identity provider configuration
type OIDCConfigRepository struct {
	db *DB
}

// NewOIDCConfigRepository creates a new OIDC config repository
func NewOIDCConfigRepository(db *DB) *OIDCConfigRepository {
	return &OIDCConfigRepository{db: db}
}

// Upsert creates or replaces the configuration for config.Provider
func (r *OIDCConfigRepository) Upsert(ctx context.Context, config *models.OIDCConfig) error {
	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}
	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO oidc_config (`+oidcColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (provider) DO UPDATE SET
			issuer = EXCLUDED.issuer,
			domain = EXCLUDED.domain,
			client_id = EXCLUDED.client_id,
			client_secret = EXCLUDED.client_secret,
			redirect_uri = EXCLUDED.redirect_uri,
			jwks_url = EXCLUDED.jwks_url,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`,
		config.ID,
		config.Provider,
		config.Issuer,
		config.Domain,
		config.ClientID,
		config.ClientSecret,
		config.RedirectURI,
		config.JWKSUrl,
		now,
	).Scan(&config.ID, &config.CreatedAt, &config.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert OIDC config: %w", err)
	}
	return nil
}

// GetByProvider retrieves an OIDC configuration by provider name
func (r *OIDCConfigRepository) GetByProvider(ctx context.Context, provider string) (*models.OIDCConfig, error) {
	config := &models.OIDCConfig{}
	err := r.db.GetContext(ctx, config, `SELECT `+oidcColumns+` FROM oidc_config WHERE provider = $1`, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("OIDC config for provider %s: %w", provider, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get OIDC config: %w", err)
	}
	return config, nil
}

// GetAll retrieves all OIDC configurations
func (r *OIDCConfigRepository) GetAll(ctx context.Context) ([]models.OIDCConfig, error) {
	var configs []models.OIDCConfig
	if err := r.db.SelectContext(ctx, &configs, `SELECT `+oidcColumns+` FROM oidc_config ORDER BY provider`); err != nil {
		return nil, fmt.Errorf("failed to query OIDC configs: %w", err)
	}
	return configs, nil
}

// Delete deletes an OIDC configuration by provider
func (r *OIDCConfigRepository) Delete(ctx context.Context, provider string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM oidc_config WHERE provider = $1`, provider)
	if err != nil {
		return fmt.Errorf("failed to delete OIDC config: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("OIDC config for provider %s: %w", provider, ErrNotFound)
	}
	return nil
}
