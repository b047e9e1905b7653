package group

import (
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

// setupTestStore はテスト用のStoreをインメモリSQLiteで構築する。
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := initSchema(sqlDB); err != nil {
		t.Fatalf("スキーマ初期化に失敗: %v", err)
	}
	return NewStore(sqlDB)
}

// mustCreateGroup はテスト用に通知グループを作成するヘルパー関数。
func mustCreateGroup(t *testing.T, store *Store, organizationID, environmentID, userID, name string) NotificationGroup {
	t.Helper()

	cmd, err := NewCreateGroupCommand(organizationID, environmentID, userID, name)
	if err != nil {
		t.Fatalf("コマンド生成に失敗: %v", err)
	}
	created, err := NewCreateGroupUsecase(store).Execute(t.Context(), cmd)
	if err != nil {
		t.Fatalf("通知グループの作成に失敗: %v", err)
	}
	return created
}

// TestCreateGroupUsecase は通知グループ作成ユースケースのテスト。
func TestCreateGroupUsecase(t *testing.T) {
	t.Parallel()

	t.Run("テナントスコープと作成者はコマンドの値がそのまま永続化される", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		created := mustCreateGroup(t, store, "org-1", "env-1", "user-1", "General")

		if created.ID == "" {
			t.Error("IDが採番されていません")
		}
		if created.OrganizationID != "org-1" {
			t.Errorf("OrganizationID: got %s, want org-1", created.OrganizationID)
		}
		if created.EnvironmentID != "env-1" {
			t.Errorf("EnvironmentID: got %s, want env-1", created.EnvironmentID)
		}
		if created.CreatedBy != "user-1" {
			t.Errorf("CreatedBy: got %s, want user-1", created.CreatedBy)
		}
		if created.Name != "General" {
			t.Errorf("Name: got %s, want General", created.Name)
		}
	})

	t.Run("同名グループの重複作成は許容される", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		first := mustCreateGroup(t, store, "org-1", "env-1", "user-1", "General")
		second := mustCreateGroup(t, store, "org-1", "env-1", "user-1", "General")

		if first.ID == second.ID {
			t.Error("重複作成で同じIDが採番されました")
		}

		cmd, err := NewListGroupsCommand("org-1", "env-1", "user-1")
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		groups, err := NewListGroupsUsecase(store).Execute(t.Context(), cmd)
		if err != nil {
			t.Fatalf("一覧取得に失敗: %v", err)
		}
		if len(groups) != 2 {
			t.Errorf("グループ数: got %d, want 2", len(groups))
		}
	})

	t.Run("ストア障害はStoreErrorとして伝播する", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		// テーブルを落としてストア障害を再現する
		if _, err := store.db.Exec("DROP TABLE notification_groups"); err != nil {
			t.Fatalf("テーブル削除に失敗: %v", err)
		}

		cmd, err := NewCreateGroupCommand("org-1", "env-1", "user-1", "General")
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		_, err = NewCreateGroupUsecase(store).Execute(t.Context(), cmd)

		var storeErr *StoreError
		if !errors.As(err, &storeErr) {
			t.Fatalf("StoreErrorではないエラーが返された: %v", err)
		}
		if storeErr.Op != "create" {
			t.Errorf("Op: got %s, want create", storeErr.Op)
		}
	})
}

// TestListGroupsUsecase は通知グループ一覧取得ユースケースのテスト。
func TestListGroupsUsecase(t *testing.T) {
	t.Parallel()

	t.Run("自テナントのグループのみが返る", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		mustCreateGroup(t, store, "org-1", "env-1", "user-1", "グループ1")
		mustCreateGroup(t, store, "org-1", "env-1", "user-1", "グループ2")
		// 他テナントのグループは一覧に含まれないことを確認するため
		mustCreateGroup(t, store, "org-2", "env-2", "user-2", "他テナント")
		// 同一組織でも環境が異なれば別テナント
		mustCreateGroup(t, store, "org-1", "env-2", "user-1", "別環境")

		cmd, err := NewListGroupsCommand("org-1", "env-1", "user-1")
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		groups, err := NewListGroupsUsecase(store).Execute(t.Context(), cmd)
		if err != nil {
			t.Fatalf("一覧取得に失敗: %v", err)
		}
		if len(groups) != 2 {
			t.Fatalf("グループ数: got %d, want 2", len(groups))
		}
		for _, g := range groups {
			if g.OrganizationID != "org-1" || g.EnvironmentID != "env-1" {
				t.Errorf("他テナントのグループが混入: %+v", g)
			}
		}
	})

	t.Run("グループが存在しない場合は空で返る", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		cmd, err := NewListGroupsCommand("org-1", "env-1", "user-1")
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		groups, err := NewListGroupsUsecase(store).Execute(t.Context(), cmd)
		if err != nil {
			t.Fatalf("一覧取得に失敗: %v", err)
		}
		if len(groups) != 0 {
			t.Errorf("グループ数: got %d, want 0", len(groups))
		}
	})
}

// TestGetGroupUsecase は通知グループ単体取得ユースケースのテスト。
func TestGetGroupUsecase(t *testing.T) {
	t.Parallel()

	t.Run("自テナントのグループを取得できる", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		created := mustCreateGroup(t, store, "org-1", "env-1", "user-1", "General")

		cmd, err := NewGetGroupCommand("org-1", "env-1", "user-1", created.ID)
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		got, err := NewGetGroupUsecase(store).Execute(t.Context(), cmd)
		if err != nil {
			t.Fatalf("取得に失敗: %v", err)
		}
		if got.ID != created.ID || got.Name != "General" {
			t.Errorf("取得結果: got %+v", got)
		}
	})

	t.Run("読み取りに副作用がなく何度でも同じ結果が返る", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		created := mustCreateGroup(t, store, "org-1", "env-1", "user-1", "General")

		cmd, err := NewGetGroupCommand("org-1", "env-1", "user-1", created.ID)
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		usecase := NewGetGroupUsecase(store)
		for i := 0; i < 3; i++ {
			got, err := usecase.Execute(t.Context(), cmd)
			if err != nil {
				t.Fatalf("%d回目の取得に失敗: %v", i+1, err)
			}
			if got != created {
				t.Errorf("%d回目の取得結果が変化: got %+v, want %+v", i+1, got, created)
			}
		}
	})

	t.Run("他テナントのスコープからはErrGroupNotFound", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		created := mustCreateGroup(t, store, "org-1", "env-1", "user-1", "General")

		cmd, err := NewGetGroupCommand("org-2", "env-2", "user-2", created.ID)
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		_, err = NewGetGroupUsecase(store).Execute(t.Context(), cmd)
		if !errors.Is(err, ErrGroupNotFound) {
			t.Errorf("エラー: got %v, want ErrGroupNotFound", err)
		}
	})

	t.Run("存在しないIDはErrGroupNotFound", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		cmd, err := NewGetGroupCommand("org-1", "env-1", "user-1", "nonexistent")
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		_, err = NewGetGroupUsecase(store).Execute(t.Context(), cmd)
		if !errors.Is(err, ErrGroupNotFound) {
			t.Errorf("エラー: got %v, want ErrGroupNotFound", err)
		}
	})
}

// TestUpdateGroupUsecase は通知グループ名称変更ユースケースのテスト。
func TestUpdateGroupUsecase(t *testing.T) {
	t.Parallel()

	t.Run("名称のみが変更され不変フィールドは保持される", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		created := mustCreateGroup(t, store, "org-1", "env-1", "user-1", "General")

		cmd, err := NewUpdateGroupCommand("org-1", "env-1", "user-2", created.ID, "Renamed")
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		updated, err := NewUpdateGroupUsecase(store).Execute(t.Context(), cmd)
		if err != nil {
			t.Fatalf("名称変更に失敗: %v", err)
		}

		if updated.Name != "Renamed" {
			t.Errorf("Name: got %s, want Renamed", updated.Name)
		}
		if updated.ID != created.ID {
			t.Errorf("ID: got %s, want %s", updated.ID, created.ID)
		}
		if updated.OrganizationID != created.OrganizationID {
			t.Errorf("OrganizationID: got %s, want %s", updated.OrganizationID, created.OrganizationID)
		}
		if updated.EnvironmentID != created.EnvironmentID {
			t.Errorf("EnvironmentID: got %s, want %s", updated.EnvironmentID, created.EnvironmentID)
		}
		// 操作者が別ユーザーでも作成者は上書きされない
		if updated.CreatedBy != "user-1" {
			t.Errorf("CreatedBy: got %s, want user-1", updated.CreatedBy)
		}
	})

	t.Run("他テナントのスコープからはErrGroupNotFoundで変更されない", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		created := mustCreateGroup(t, store, "org-1", "env-1", "user-1", "General")

		cmd, err := NewUpdateGroupCommand("org-2", "env-2", "user-2", created.ID, "Hijacked")
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		_, err = NewUpdateGroupUsecase(store).Execute(t.Context(), cmd)
		if !errors.Is(err, ErrGroupNotFound) {
			t.Fatalf("エラー: got %v, want ErrGroupNotFound", err)
		}

		// 元のテナントから見ると名称は変わっていない
		getCmd, err := NewGetGroupCommand("org-1", "env-1", "user-1", created.ID)
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		got, err := NewGetGroupUsecase(store).Execute(t.Context(), getCmd)
		if err != nil {
			t.Fatalf("取得に失敗: %v", err)
		}
		if got.Name != "General" {
			t.Errorf("Name: got %s, want General", got.Name)
		}
	})

	t.Run("存在しないIDはErrGroupNotFound", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		cmd, err := NewUpdateGroupCommand("org-1", "env-1", "user-1", "nonexistent", "Renamed")
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		_, err = NewUpdateGroupUsecase(store).Execute(t.Context(), cmd)
		if !errors.Is(err, ErrGroupNotFound) {
			t.Errorf("エラー: got %v, want ErrGroupNotFound", err)
		}
	})
}

// TestDeleteGroupUsecase は通知グループ削除ユースケースのテスト。
func TestDeleteGroupUsecase(t *testing.T) {
	t.Parallel()

	t.Run("削除後はGet/Update/DeleteのいずれもErrGroupNotFound", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		created := mustCreateGroup(t, store, "org-1", "env-1", "user-1", "General")

		deleteCmd, err := NewDeleteGroupCommand("org-1", "env-1", "user-1", created.ID)
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		result, err := NewDeleteGroupUsecase(store).Execute(t.Context(), deleteCmd)
		if err != nil {
			t.Fatalf("削除に失敗: %v", err)
		}
		if result.ID != created.ID || !result.Deleted {
			t.Errorf("削除結果: got %+v", result)
		}

		getCmd, err := NewGetGroupCommand("org-1", "env-1", "user-1", created.ID)
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		if _, err := NewGetGroupUsecase(store).Execute(t.Context(), getCmd); !errors.Is(err, ErrGroupNotFound) {
			t.Errorf("削除後のGet: got %v, want ErrGroupNotFound", err)
		}

		updateCmd, err := NewUpdateGroupCommand("org-1", "env-1", "user-1", created.ID, "Renamed")
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		if _, err := NewUpdateGroupUsecase(store).Execute(t.Context(), updateCmd); !errors.Is(err, ErrGroupNotFound) {
			t.Errorf("削除後のUpdate: got %v, want ErrGroupNotFound", err)
		}

		if _, err := NewDeleteGroupUsecase(store).Execute(t.Context(), deleteCmd); !errors.Is(err, ErrGroupNotFound) {
			t.Errorf("削除後のDelete: got %v, want ErrGroupNotFound", err)
		}
	})

	t.Run("他テナントのスコープからはErrGroupNotFoundで削除されない", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		created := mustCreateGroup(t, store, "org-1", "env-1", "user-1", "General")

		cmd, err := NewDeleteGroupCommand("org-2", "env-2", "user-2", created.ID)
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		if _, err := NewDeleteGroupUsecase(store).Execute(t.Context(), cmd); !errors.Is(err, ErrGroupNotFound) {
			t.Fatalf("エラー: got %v, want ErrGroupNotFound", err)
		}

		// 元のテナントからは引き続き見える
		getCmd, err := NewGetGroupCommand("org-1", "env-1", "user-1", created.ID)
		if err != nil {
			t.Fatalf("コマンド生成に失敗: %v", err)
		}
		if _, err := NewGetGroupUsecase(store).Execute(t.Context(), getCmd); err != nil {
			t.Errorf("元テナントからの取得に失敗: %v", err)
		}
	})
}
