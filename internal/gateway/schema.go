package gateway

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。ユーザーは必ず1つの組織と環境に属する。
// JWTのテナントクレームはこのテーブルの値からのみ生成される。
const schema = `
CREATE TABLE IF NOT EXISTS users (
    -- ユーザーの一意識別子
    id TEXT PRIMARY KEY,
    -- 認証プロバイダ（github / google / dev）
    provider TEXT NOT NULL,
    -- プロバイダ側のユーザー識別子
    provider_user_id TEXT NOT NULL,
    -- メールアドレス
    email TEXT NOT NULL,
    -- 表示名
    display_name TEXT NOT NULL,
    -- ユーザーが所属する組織のID
    organization_id TEXT NOT NULL,
    -- ユーザーが操作中の環境のID
    environment_id TEXT NOT NULL,
    -- 作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    -- 最終ログイン日時
    last_login_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_provider
    ON users(provider, provider_user_id);

CREATE INDEX IF NOT EXISTS idx_users_email
    ON users(email);
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
