package group

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// groupStore はユースケースが依存する永続化アクセサの契約。
// *Storeが実装する。テナントスコープ付きクエリ以外の経路でエンティティに
// 触れる手段を持たない。
type groupStore interface {
	CreateGroup(ctx context.Context, params CreateGroupParams) error
	ListGroups(ctx context.Context, params ListGroupsParams) ([]NotificationGroup, error)
	GetGroup(ctx context.Context, params GetGroupParams) (NotificationGroup, error)
	UpdateGroupName(ctx context.Context, params UpdateGroupNameParams) (int64, error)
	DeleteGroup(ctx context.Context, params DeleteGroupParams) (int64, error)
}

// ユースケースは1操作につき1つ。コマンドをちょうど1つ受け取り、
// テナントスコープ付きのデータ操作を実行してドメイン結果またはドメインエラーを返す。
// ローカルな回復は行わず、失敗はそのまま呼び出し側に伝播する。

// CreateGroupUsecase は通知グループ作成ユースケース。
type CreateGroupUsecase struct {
	store groupStore
}

// NewCreateGroupUsecase は新しいCreateGroupUsecaseを生成する。
func NewCreateGroupUsecase(store groupStore) *CreateGroupUsecase {
	return &CreateGroupUsecase{store: store}
}

// Execute は通知グループを新規作成して返す。
// テナントスコープは必ずコマンドから取る。IDは新規採番される。
// 冪等キーは持たないため、リトライされたリクエストは重複エンティティを作る。
func (u *CreateGroupUsecase) Execute(ctx context.Context, cmd CreateGroupCommand) (NotificationGroup, error) {
	id := uuid.New().String()
	if err := u.store.CreateGroup(ctx, CreateGroupParams{
		ID:             id,
		OrganizationID: cmd.OrganizationID,
		EnvironmentID:  cmd.EnvironmentID,
		Name:           cmd.Name,
		CreatedBy:      cmd.UserID,
	}); err != nil {
		return NotificationGroup{}, &StoreError{Op: "create", Err: err}
	}

	// 採番された日時フィールドを含めて返すため、作成した行を読み直す
	created, err := u.store.GetGroup(ctx, GetGroupParams{
		OrganizationID: cmd.OrganizationID,
		EnvironmentID:  cmd.EnvironmentID,
		ID:             id,
	})
	if err != nil {
		return NotificationGroup{}, &StoreError{Op: "create", Err: err}
	}
	return created, nil
}

// ListGroupsUsecase は通知グループ一覧取得ユースケース。
type ListGroupsUsecase struct {
	store groupStore
}

// NewListGroupsUsecase は新しいListGroupsUsecaseを生成する。
func NewListGroupsUsecase(store groupStore) *ListGroupsUsecase {
	return &ListGroupsUsecase{store: store}
}

// Execute はテナントスコープに一致する全通知グループを返す。
// 読み取りに副作用はない。
func (u *ListGroupsUsecase) Execute(ctx context.Context, cmd ListGroupsCommand) ([]NotificationGroup, error) {
	groups, err := u.store.ListGroups(ctx, ListGroupsParams{
		OrganizationID: cmd.OrganizationID,
		EnvironmentID:  cmd.EnvironmentID,
	})
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return groups, nil
}

// GetGroupUsecase は通知グループ単体取得ユースケース。
type GetGroupUsecase struct {
	store groupStore
}

// NewGetGroupUsecase は新しいGetGroupUsecaseを生成する。
func NewGetGroupUsecase(store groupStore) *GetGroupUsecase {
	return &GetGroupUsecase{store: store}
}

// Execute は (組織, 環境, ID) に一致する通知グループを返す。
// 一致しない場合はErrGroupNotFoundを返す。IDの誤り・他テナント・削除済みは区別しない。
func (u *GetGroupUsecase) Execute(ctx context.Context, cmd GetGroupCommand) (NotificationGroup, error) {
	g, err := u.store.GetGroup(ctx, GetGroupParams{
		OrganizationID: cmd.OrganizationID,
		EnvironmentID:  cmd.EnvironmentID,
		ID:             cmd.ID,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return NotificationGroup{}, ErrGroupNotFound
	}
	if err != nil {
		return NotificationGroup{}, &StoreError{Op: "get", Err: err}
	}
	return g, nil
}

// UpdateGroupUsecase は通知グループ名称変更ユースケース。
type UpdateGroupUsecase struct {
	store groupStore
}

// NewUpdateGroupUsecase は新しいUpdateGroupUsecaseを生成する。
func NewUpdateGroupUsecase(store groupStore) *UpdateGroupUsecase {
	return &UpdateGroupUsecase{store: store}
}

// Execute は名称のみを変更し、変更後のエンティティを返す。
// ID・テナントスコープ・作成者はリクエストに何が含まれていても上書きされない。
// スコープに一致する行がなければErrGroupNotFoundを返す。
func (u *UpdateGroupUsecase) Execute(ctx context.Context, cmd UpdateGroupCommand) (NotificationGroup, error) {
	affected, err := u.store.UpdateGroupName(ctx, UpdateGroupNameParams{
		Name:           cmd.Name,
		OrganizationID: cmd.OrganizationID,
		EnvironmentID:  cmd.EnvironmentID,
		ID:             cmd.ID,
	})
	if err != nil {
		return NotificationGroup{}, &StoreError{Op: "update", Err: err}
	}
	if affected == 0 {
		return NotificationGroup{}, ErrGroupNotFound
	}

	// レスポンス用に変更後の行を読み直す。直後に並行削除された場合は
	// 見つからない扱いになる
	updated, err := u.store.GetGroup(ctx, GetGroupParams{
		OrganizationID: cmd.OrganizationID,
		EnvironmentID:  cmd.EnvironmentID,
		ID:             cmd.ID,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return NotificationGroup{}, ErrGroupNotFound
	}
	if err != nil {
		return NotificationGroup{}, &StoreError{Op: "update", Err: err}
	}
	return updated, nil
}

// DeleteGroupResult は削除ユースケースの確認結果。
type DeleteGroupResult struct {
	// ID は削除された通知グループのID。
	ID string
	// Deleted は削除が完了したことを示すフラグ。
	Deleted bool
}

// DeleteGroupUsecase は通知グループ削除ユースケース。
type DeleteGroupUsecase struct {
	store groupStore
}

// NewDeleteGroupUsecase は新しいDeleteGroupUsecaseを生成する。
func NewDeleteGroupUsecase(store groupStore) *DeleteGroupUsecase {
	return &DeleteGroupUsecase{store: store}
}

// Execute はスコープに一致する通知グループを物理削除する。復元経路はない。
// スコープに一致する行がなければErrGroupNotFoundを返す。
// グループを参照する通知テンプレートへのカスケードは行わない。
func (u *DeleteGroupUsecase) Execute(ctx context.Context, cmd DeleteGroupCommand) (DeleteGroupResult, error) {
	affected, err := u.store.DeleteGroup(ctx, DeleteGroupParams{
		OrganizationID: cmd.OrganizationID,
		EnvironmentID:  cmd.EnvironmentID,
		ID:             cmd.ID,
	})
	if err != nil {
		return DeleteGroupResult{}, &StoreError{Op: "delete", Err: err}
	}
	if affected == 0 {
		return DeleteGroupResult{}, ErrGroupNotFound
	}
	return DeleteGroupResult{ID: cmd.ID, Deleted: true}, nil
}
