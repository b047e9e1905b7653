package event

import (
	"encoding/json"
	"time"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

const (
	// AggregateTypeNotificationGroup は通知グループエンティティを表す。
	AggregateTypeNotificationGroup AggregateType = "NotificationGroup"
	// AggregateTypeUser はユーザーエンティティを表す。
	AggregateTypeUser AggregateType = "User"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeNotificationGroupCreated は通知グループが作成されたことを表す。
	TypeNotificationGroupCreated Type = "NotificationGroupCreated"
	// TypeNotificationGroupUpdated は通知グループの名称が変更されたことを表す。
	TypeNotificationGroupUpdated Type = "NotificationGroupUpdated"
	// TypeNotificationGroupDeleted は通知グループが削除されたことを表す。
	TypeNotificationGroupDeleted Type = "NotificationGroupDeleted"

	// TypeUserProvisioned はユーザーとテナントが新規発行されたことを表す。
	TypeUserProvisioned Type = "UserProvisioned"
)

// Event は監査ログに記録される不変のイベントレコードを表す。
// リソースに対する状態変更はこの構造体として監査サービスに永続化される。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// AggregateID は対象エンティティの識別子。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// ActorID はこの状態変更を実行したユーザーのID。
	ActorID string `json:"actor_id"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// NotificationGroupCreatedData はNotificationGroupCreatedイベントのデータ。
type NotificationGroupCreatedData struct {
	// OrganizationID はグループが属する組織のID。
	OrganizationID string `json:"organization_id"`
	// EnvironmentID はグループが属する環境のID。
	EnvironmentID string `json:"environment_id"`
	// Name はグループ名。
	Name string `json:"name"`
}

// NotificationGroupUpdatedData はNotificationGroupUpdatedイベントのデータ。
type NotificationGroupUpdatedData struct {
	// Name は変更後のグループ名。
	Name string `json:"name"`
}

// NotificationGroupDeletedData はNotificationGroupDeletedイベントのデータ。
type NotificationGroupDeletedData struct {
	// OrganizationID はグループが属していた組織のID。
	OrganizationID string `json:"organization_id"`
	// EnvironmentID はグループが属していた環境のID。
	EnvironmentID string `json:"environment_id"`
}

// UserProvisionedData はUserProvisionedイベントのデータ。
type UserProvisionedData struct {
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
	// OrganizationID は発行された組織のID。
	OrganizationID string `json:"organization_id"`
	// EnvironmentID は発行された環境のID。
	EnvironmentID string `json:"environment_id"`
}
