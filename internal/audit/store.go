package audit

import (
	"context"
	"database/sql"
	"time"
)

// AuditEvent は監査ログに記録された不変のイベントレコードのDB表現。
type AuditEvent struct {
	// ID はイベントの一意識別子（UUID）。
	ID string
	// AggregateID は対象エンティティの識別子。
	AggregateID string
	// AggregateType は対象エンティティの種類。
	AggregateType string
	// EventType はイベントの種類。
	EventType string
	// Data はイベント固有のデータ（JSON文字列）。
	Data string
	// ActorID は状態変更を実行したユーザーのID。
	ActorID string
	// CreatedAt はイベントの記録日時。
	CreatedAt time.Time
}

// Store は監査イベントの永続化アクセサ。追記と読み取りのみを提供する。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewStore は新しいStoreを生成する。
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// AppendEventParams は監査イベント追記クエリのパラメータ。
type AppendEventParams struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Data          string
	ActorID       string
}

// AppendEvent は監査イベントを1件追記する。
func (s *Store) AppendEvent(ctx context.Context, params AppendEventParams) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, aggregate_id, aggregate_type, event_type, data, actor_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		params.ID, params.AggregateID, params.AggregateType, params.EventType, params.Data, params.ActorID,
	)
	return err
}

// ListEventsByAggregateID は指定エンティティの監査イベントを記録順で返す。
func (s *Store) ListEventsByAggregateID(ctx context.Context, aggregateID string) ([]AuditEvent, error) {
	return s.listEvents(ctx, `
		SELECT id, aggregate_id, aggregate_type, event_type, data, actor_id, created_at
		FROM audit_events
		WHERE aggregate_id = ?
		ORDER BY created_at, id`, aggregateID)
}

// ListEventsByType は指定タイプの監査イベントを記録順で返す。
func (s *Store) ListEventsByType(ctx context.Context, eventType string) ([]AuditEvent, error) {
	return s.listEvents(ctx, `
		SELECT id, aggregate_id, aggregate_type, event_type, data, actor_id, created_at
		FROM audit_events
		WHERE event_type = ?
		ORDER BY created_at, id`, eventType)
}

// ListEventsSince は指定日時以降に記録された監査イベントを記録順で返す。
// created_atカラムにはdatetime('now')がUTCのテキスト（YYYY-MM-DD HH:MM:SS）を
// 書き込むため、比較対象も同じ形式に正規化してから束縛する。
func (s *Store) ListEventsSince(ctx context.Context, since time.Time) ([]AuditEvent, error) {
	return s.listEvents(ctx, `
		SELECT id, aggregate_id, aggregate_type, event_type, data, actor_id, created_at
		FROM audit_events
		WHERE created_at >= ?
		ORDER BY created_at, id`, since.UTC().Format("2006-01-02 15:04:05"))
}

// listEvents は監査イベント読み取りクエリの共通処理。
func (s *Store) listEvents(ctx context.Context, query string, arg any) ([]AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.Data, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
