package group

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。テナントスコープでの絞り込みが全クエリの前提となるため、
// (organization_id, environment_id) の複合インデックスを張る。
// グループ名に一意制約は置かない。同名グループの重複は仕様上許容される。
const schema = `
CREATE TABLE IF NOT EXISTS notification_groups (
    -- 通知グループの一意識別子
    id TEXT PRIMARY KEY,
    -- グループが属する組織のID
    organization_id TEXT NOT NULL,
    -- グループが属する環境のID
    environment_id TEXT NOT NULL,
    -- グループ名
    name TEXT NOT NULL,
    -- グループを作成したユーザーのID（監査用。スコープ判定には使わない）
    created_by TEXT NOT NULL,
    -- 作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    -- 更新日時
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

-- テナントスコープでの検索を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_notification_groups_tenant
    ON notification_groups(organization_id, environment_id);
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
