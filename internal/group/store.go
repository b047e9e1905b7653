package group

import (
	"context"
	"database/sql"
	"time"
)

// NotificationGroup は通知グループエンティティのDB表現。
type NotificationGroup struct {
	// ID は通知グループの一意識別子。作成時に採番され、以後不変。
	ID string
	// OrganizationID はグループが属する組織のID。作成時に確定し、以後不変。
	OrganizationID string
	// EnvironmentID はグループが属する環境のID。作成時に確定し、以後不変。
	EnvironmentID string
	// Name はグループ名。更新操作で変更できる唯一のフィールド。
	Name string
	// CreatedBy はグループを作成したユーザーのID。監査用で、スコープ判定には使わない。
	CreatedBy string
	// CreatedAt は作成日時。
	CreatedAt time.Time
	// UpdatedAt は更新日時。
	UpdatedAt time.Time
}

// Store は通知グループのテナントスコープ付き永続化アクセサ。
// すべての読み取り・更新・削除は (organization_id, environment_id, id) で絞り込む。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewStore は新しいStoreを生成する。
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateGroupParams は通知グループ作成クエリのパラメータ。
type CreateGroupParams struct {
	ID             string
	OrganizationID string
	EnvironmentID  string
	Name           string
	CreatedBy      string
}

// CreateGroup は通知グループを1件挿入する。
func (s *Store) CreateGroup(ctx context.Context, params CreateGroupParams) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_groups (id, organization_id, environment_id, name, created_by)
		VALUES (?, ?, ?, ?, ?)`,
		params.ID, params.OrganizationID, params.EnvironmentID, params.Name, params.CreatedBy,
	)
	return err
}

// ListGroupsParams はテナントスコープでの一覧取得クエリのパラメータ。
type ListGroupsParams struct {
	OrganizationID string
	EnvironmentID  string
}

// ListGroups はテナントスコープに一致する全通知グループを作成順で返す。
// ページネーションは行わない。テナントあたりのグループ数は少数である前提。
func (s *Store) ListGroups(ctx context.Context, params ListGroupsParams) ([]NotificationGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, organization_id, environment_id, name, created_by, created_at, updated_at
		FROM notification_groups
		WHERE organization_id = ? AND environment_id = ?
		ORDER BY created_at, id`,
		params.OrganizationID, params.EnvironmentID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var groups []NotificationGroup
	for rows.Next() {
		var g NotificationGroup
		if err := rows.Scan(&g.ID, &g.OrganizationID, &g.EnvironmentID, &g.Name, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetGroupParams はテナントスコープ付き単体取得クエリのパラメータ。
type GetGroupParams struct {
	OrganizationID string
	EnvironmentID  string
	ID             string
}

// GetGroup は (organization_id, environment_id, id) に一致する通知グループを返す。
// 一致する行がない場合はsql.ErrNoRowsを返す。
func (s *Store) GetGroup(ctx context.Context, params GetGroupParams) (NotificationGroup, error) {
	var g NotificationGroup
	err := s.db.QueryRowContext(ctx, `
		SELECT id, organization_id, environment_id, name, created_by, created_at, updated_at
		FROM notification_groups
		WHERE id = ? AND organization_id = ? AND environment_id = ?`,
		params.ID, params.OrganizationID, params.EnvironmentID,
	).Scan(&g.ID, &g.OrganizationID, &g.EnvironmentID, &g.Name, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// UpdateGroupNameParams はテナントスコープ付き名称変更クエリのパラメータ。
type UpdateGroupNameParams struct {
	Name           string
	OrganizationID string
	EnvironmentID  string
	ID             string
}

// UpdateGroupName は名称のみを条件付きUPDATE 1文で変更し、影響行数を返す。
// 読み取ってから書き戻す方式を取らないため、並行する削除との競合で
// 削除済みの行が復活することはない。影響行数0は「見つからない」を意味する。
func (s *Store) UpdateGroupName(ctx context.Context, params UpdateGroupNameParams) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notification_groups
		SET name = ?, updated_at = datetime('now')
		WHERE id = ? AND organization_id = ? AND environment_id = ?`,
		params.Name, params.ID, params.OrganizationID, params.EnvironmentID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteGroupParams はテナントスコープ付き削除クエリのパラメータ。
type DeleteGroupParams struct {
	OrganizationID string
	EnvironmentID  string
	ID             string
}

// DeleteGroup は条件付きDELETE 1文で物理削除し、影響行数を返す。
// 影響行数0は「見つからない」を意味する。
func (s *Store) DeleteGroup(ctx context.Context, params DeleteGroupParams) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM notification_groups
		WHERE id = ? AND organization_id = ? AND environment_id = ?`,
		params.ID, params.OrganizationID, params.EnvironmentID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
