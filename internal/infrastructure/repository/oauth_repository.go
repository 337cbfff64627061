package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// PostgresOAuth2Repository implements domain.OAuth2Repository using PostgreSQL
type PostgresOAuth2Repository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewOAuth2Repository creates a new PostgresOAuth2Repository
func NewOAuth2Repository(db *database.Postgres, logger *zap.Logger) domain.OAuth2Repository {
	return &PostgresOAuth2Repository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresOAuth2Repository) CreateClient(ctx context.Context, client *domain.OAuthClient) error {
	redirectURIs, err := json.Marshal(client.RedirectURIs)
	if err != nil {
		return err
	}

	err = r.db.Exec(ctx, `
		INSERT INTO oauth_clients (id, secret, name, redirect_uris, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, client.ID, client.Secret, client.Name, redirectURIs, client.CreatedAt, client.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrClientAlreadyExists
	}
	return err
}

func (r *PostgresOAuth2Repository) FindClientByID(ctx context.Context, id string) (*domain.OAuthClient, error) {
	client := &domain.OAuthClient{}
	var redirectURIs []byte

	err := r.db.QueryRow(ctx, `
		SELECT id, secret, name, redirect_uris, created_at, updated_at
		FROM oauth_clients WHERE id = $1
	`, id).Scan(&client.ID, &client.Secret, &client.Name, &redirectURIs, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		r.logger.Error("Failed to find client", zap.String("client_id", id), zap.Error(err))
		return nil, err
	}

	if err := json.Unmarshal(redirectURIs, &client.RedirectURIs); err != nil {
		return nil, err
	}

	return client, nil
}

func (r *PostgresOAuth2Repository) UpdateClient(ctx context.Context, client *domain.OAuthClient) error {
	redirectURIs, err := json.Marshal(client.RedirectURIs)
	if err != nil {
		return err
	}

	return r.db.Exec(ctx, `
		UPDATE oauth_clients
		SET secret = $1, name = $2, redirect_uris = $3, updated_at = $4
		WHERE id = $5
	`, client.Secret, client.Name, redirectURIs, client.UpdatedAt, client.ID)
}

func (r *PostgresOAuth2Repository) DeleteClient(ctx context.Context, id string) error {
	tag, err := r.db.ExecRaw(ctx, "DELETE FROM oauth_clients WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

func (r *PostgresOAuth2Repository) ListClients(ctx context.Context) ([]*domain.OAuthClient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, secret, name, redirect_uris, created_at, updated_at
		FROM oauth_clients
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*domain.OAuthClient
	for rows.Next() {
		client := &domain.OAuthClient{}
		var redirectURIs []byte

		if err := rows.Scan(&client.ID, &client.Secret, &client.Name, &redirectURIs, &client.CreatedAt, &client.UpdatedAt); err != nil {
			return nil, err
		}

		if err := json.Unmarshal(redirectURIs, &client.RedirectURIs); err != nil {
			return nil, err
		}

		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (r *PostgresOAuth2Repository) CreateAuthorizationCode(ctx context.Context, code *domain.AuthorizationCode) error {
	return r.db.Exec(ctx, `
		INSERT INTO authorization_codes
			(code, client_id, user_id, redirect_uri, scope, code_challenge, code_challenge_method, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, $9)
	`, code.Code, code.ClientID, code.UserID, code.RedirectURI, code.Scope,
		code.CodeChallenge, code.CodeChallengeMethod, code.ExpiresAt, code.CreatedAt)
}

func (r *PostgresOAuth2Repository) GetAuthorizationCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	authCode := &domain.AuthorizationCode{}

	err := r.db.QueryRow(ctx, `
		SELECT code, client_id, user_id, redirect_uri, scope, code_challenge, code_challenge_method, expires_at, used, created_at
		FROM authorization_codes WHERE code = $1
	`, code).Scan(&authCode.Code, &authCode.ClientID, &authCode.UserID, &authCode.RedirectURI,
		&authCode.Scope, &authCode.CodeChallenge, &authCode.CodeChallengeMethod,
		&authCode.ExpiresAt, &authCode.Used, &authCode.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, err
	}

	return authCode, nil
}

// ConsumeAuthorizationCode marks the code used and stores the refresh token
// issued for it inside one transaction. The conditional UPDATE is the
// check-and-mark: of two concurrent redemptions exactly one sees a row.
func (r *PostgresOAuth2Repository) ConsumeAuthorizationCode(ctx context.Context, code string, refresh *domain.RefreshToken) (*domain.AuthorizationCode, error) {
	authCode := &domain.AuthorizationCode{}

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE authorization_codes
			SET used = true
			WHERE code = $1 AND used = false
			RETURNING code, client_id, user_id, redirect_uri, scope, code_challenge, code_challenge_method, expires_at, used, created_at
		`, code).Scan(&authCode.Code, &authCode.ClientID, &authCode.UserID, &authCode.RedirectURI,
			&authCode.Scope, &authCode.CodeChallenge, &authCode.CodeChallengeMethod,
			&authCode.ExpiresAt, &authCode.Used, &authCode.CreatedAt)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			// Distinguish an unknown code from a replayed one
			var exists bool
			if scanErr := tx.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM authorization_codes WHERE code = $1)", code,
			).Scan(&exists); scanErr != nil {
				return scanErr
			}
			if exists {
				return domain.ErrCodeAlreadyUsed
			}
			return domain.ErrCodeNotFound
		}

		if refresh != nil {
			if _, err := tx.Exec(ctx, `
				INSERT INTO refresh_tokens (token, client_id, user_id, scope, expires_at, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, refresh.Token, refresh.ClientID, refresh.UserID, refresh.Scope,
				refresh.ExpiresAt, refresh.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrCodeAlreadyUsed) && !errors.Is(err, domain.ErrCodeNotFound) {
			r.logger.Error("Failed to consume authorization code", zap.Error(err))
		}
		return nil, err
	}

	return authCode, nil
}

func (r *PostgresOAuth2Repository) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refresh := &domain.RefreshToken{}

	err := r.db.QueryRow(ctx, `
		SELECT token, client_id, user_id, scope, expires_at, created_at
		FROM refresh_tokens WHERE token = $1
	`, token).Scan(&refresh.Token, &refresh.ClientID, &refresh.UserID, &refresh.Scope,
		&refresh.ExpiresAt, &refresh.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, err
	}

	return refresh, nil
}

// RotateRefreshToken deletes the old token and inserts its replacement in
// one transaction, so a stolen old token cannot remain valid after a
// legitimate rotation and two concurrent rotations cannot both succeed.
func (r *PostgresOAuth2Repository) RotateRefreshToken(ctx context.Context, old string, replacement *domain.RefreshToken) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "DELETE FROM refresh_tokens WHERE token = $1", old)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrRefreshTokenNotFound
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO refresh_tokens (token, client_id, user_id, scope, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, replacement.Token, replacement.ClientID, replacement.UserID, replacement.Scope,
			replacement.ExpiresAt, replacement.CreatedAt)
		return err
	})
}

func (r *PostgresOAuth2Repository) DeleteExpired(ctx context.Context) error {
	if err := r.db.Exec(ctx, "DELETE FROM authorization_codes WHERE expires_at < now()"); err != nil {
		return err
	}
	return r.db.Exec(ctx, "DELETE FROM refresh_tokens WHERE expires_at < now()")
}
