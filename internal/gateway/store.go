package gateway

import (
	"context"
	"database/sql"
	"time"
)

// User は認証済みユーザーのDB表現。
type User struct {
	// ID はユーザーの一意識別子。
	ID string
	// Provider は認証プロバイダ（github / google / dev）。
	Provider string
	// ProviderUserID はプロバイダ側のユーザー識別子。
	ProviderUserID string
	// Email はメールアドレス。
	Email string
	// DisplayName は表示名。
	DisplayName string
	// OrganizationID はユーザーが所属する組織のID。
	OrganizationID string
	// EnvironmentID はユーザーが操作中の環境のID。
	EnvironmentID string
	// CreatedAt は作成日時。
	CreatedAt time.Time
	// LastLoginAt は最終ログイン日時。
	LastLoginAt time.Time
}

// Store はユーザーの永続化アクセサ。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewStore は新しいStoreを生成する。
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateUserParams はユーザー作成クエリのパラメータ。
type CreateUserParams struct {
	ID             string
	Provider       string
	ProviderUserID string
	Email          string
	DisplayName    string
	OrganizationID string
	EnvironmentID  string
}

// CreateUser はユーザーを1件挿入する。
func (s *Store) CreateUser(ctx context.Context, params CreateUserParams) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, provider, provider_user_id, email, display_name, organization_id, environment_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		params.ID, params.Provider, params.ProviderUserID, params.Email, params.DisplayName,
		params.OrganizationID, params.EnvironmentID,
	)
	return err
}

// GetUserByProviderParams はプロバイダ識別子によるユーザー取得クエリのパラメータ。
type GetUserByProviderParams struct {
	Provider       string
	ProviderUserID string
}

// GetUserByProvider はプロバイダ識別子に一致するユーザーを返す。
// 一致する行がない場合はsql.ErrNoRowsを返す。
func (s *Store) GetUserByProvider(ctx context.Context, params GetUserByProviderParams) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, provider, provider_user_id, email, display_name, organization_id, environment_id, created_at, last_login_at
		FROM users
		WHERE provider = ? AND provider_user_id = ?`,
		params.Provider, params.ProviderUserID,
	).Scan(&u.ID, &u.Provider, &u.ProviderUserID, &u.Email, &u.DisplayName, &u.OrganizationID, &u.EnvironmentID, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

// GetUserByID はIDに一致するユーザーを返す。
// 一致する行がない場合はsql.ErrNoRowsを返す。
func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, provider, provider_user_id, email, display_name, organization_id, environment_id, created_at, last_login_at
		FROM users
		WHERE id = ?`, id,
	).Scan(&u.ID, &u.Provider, &u.ProviderUserID, &u.Email, &u.DisplayName, &u.OrganizationID, &u.EnvironmentID, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

// UpdateLastLogin は最終ログイン日時を現在時刻に更新する。
func (s *Store) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_login_at = datetime('now') WHERE id = ?`, id)
	return err
}
