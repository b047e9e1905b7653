package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/notifyhub/notifyhub/pkg/middleware"
)

// Server は監査ログサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// store は監査イベントの永続化アクセサ。
	store *Store
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewServer は新しい監査ログサーバーを生成する。
// SQLiteデータベースの初期化とマイグレーションを行う。
func NewServer(port string) (*Server, error) {
	sqlDB, err := sql.Open("sqlite", "/data/audit.db?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router: router,
		port:   port,
		store:  NewStore(sqlDB),
		db:     sqlDB,
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	{
		events := api.Group("/audit-events")
		{
			// 監査イベントの追記
			events.POST("", s.handleAppendEvent())
			// AggregateIDによるイベント取得
			events.GET("/aggregate/:aggregate_id", s.handleListByAggregateID())
			// イベントタイプによるイベント取得
			events.GET("/type/:event_type", s.handleListByType())
			// 日時指定によるイベント取得（クエリパラメータ: since）
			events.GET("/since", s.handleListSince())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "audit"})
	})
}

// appendEventRequest は監査イベント追記リクエストのJSON構造。
type appendEventRequest struct {
	// ID はイベントの一意識別子。未指定の場合はサーバー側で採番する。
	ID string `json:"id"`
	// AggregateID は対象エンティティの識別子。
	AggregateID string `json:"aggregate_id" binding:"required"`
	// AggregateType は対象エンティティの種類。
	AggregateType string `json:"aggregate_type" binding:"required"`
	// EventType はイベントの種類。
	EventType string `json:"event_type" binding:"required"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data" binding:"required"`
	// ActorID は状態変更を実行したユーザーのID。
	ActorID string `json:"actor_id"`
}

// auditEventResponse は監査イベントのJSONレスポンス構造。
type auditEventResponse struct {
	// ID はイベントの一意識別子。
	ID string `json:"id"`
	// AggregateID は対象エンティティの識別子。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType string `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType string `json:"event_type"`
	// Data はイベント固有のデータ。
	Data json.RawMessage `json:"data"`
	// ActorID は状態変更を実行したユーザーのID。
	ActorID string `json:"actor_id"`
	// CreatedAt はイベントの記録日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
}

// toAuditEventResponses はDB行のスライスをJSONレスポンスのスライスに変換する。
func toAuditEventResponses(events []AuditEvent) []auditEventResponse {
	responses := make([]auditEventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, auditEventResponse{
			ID:            e.ID,
			AggregateID:   e.AggregateID,
			AggregateType: e.AggregateType,
			EventType:     e.EventType,
			Data:          json.RawMessage(e.Data),
			ActorID:       e.ActorID,
			CreatedAt:     e.CreatedAt.Format(time.RFC3339),
		})
	}
	return responses
}

// handleAppendEvent は監査イベントの追記を処理するハンドラを返す。
func (s *Server) handleAppendEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req appendEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		eventID := req.ID
		if eventID == "" {
			eventID = uuid.New().String()
		}

		// 操作者IDはボディよりヘッダーの値を優先する
		actorID := c.GetHeader("X-User-ID")
		if actorID == "" {
			actorID = req.ActorID
		}

		if err := s.store.AppendEvent(c.Request.Context(), AppendEventParams{
			ID:            eventID,
			AggregateID:   req.AggregateID,
			AggregateType: req.AggregateType,
			EventType:     req.EventType,
			Data:          string(req.Data),
			ActorID:       actorID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "監査イベントの追記に失敗しました"})
			log.Printf("監査イベント追記エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": eventID})
	}
}

// handleListByAggregateID はAggregateIDによるイベント取得を処理するハンドラを返す。
func (s *Server) handleListByAggregateID() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := s.store.ListEventsByAggregateID(c.Request.Context(), c.Param("aggregate_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "監査イベントの取得に失敗しました"})
			log.Printf("監査イベント取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toAuditEventResponses(events))
	}
}

// handleListByType はイベントタイプによるイベント取得を処理するハンドラを返す。
func (s *Server) handleListByType() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := s.store.ListEventsByType(c.Request.Context(), c.Param("event_type"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "監査イベントの取得に失敗しました"})
			log.Printf("監査イベント取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toAuditEventResponses(events))
	}
}

// handleListSince は日時指定によるイベント取得を処理するハンドラを返す。
func (s *Server) handleListSince() gin.HandlerFunc {
	return func(c *gin.Context) {
		sinceParam := c.Query("since")
		if sinceParam == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sinceクエリパラメータが必要です"})
			return
		}

		since, err := time.Parse(time.RFC3339, sinceParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sinceはRFC3339形式で指定してください"})
			return
		}

		events, err := s.store.ListEventsSince(c.Request.Context(), since)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "監査イベントの取得に失敗しました"})
			log.Printf("監査イベント取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toAuditEventResponses(events))
	}
}
