package group

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/notifyhub/notifyhub/pkg/event"
	"github.com/notifyhub/notifyhub/pkg/httpclient"
	"github.com/notifyhub/notifyhub/pkg/middleware"
)

// Server は通知グループサービスのHTTPサーバー。
// 起動時にユースケースを明示的に組み立て、ハンドラはその参照を直接保持する。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// store は通知グループのテナントスコープ付き永続化アクセサ。
	store *Store
	// db はSQLiteデータベース接続。
	db *sql.DB
	// auditClient は監査サービスへのHTTPクライアント。
	auditClient *httpclient.Client

	// createGroup は通知グループ作成ユースケース。
	createGroup *CreateGroupUsecase
	// listGroups は通知グループ一覧取得ユースケース。
	listGroups *ListGroupsUsecase
	// getGroup は通知グループ単体取得ユースケース。
	getGroup *GetGroupUsecase
	// updateGroup は通知グループ名称変更ユースケース。
	updateGroup *UpdateGroupUsecase
	// deleteGroup は通知グループ削除ユースケース。
	deleteGroup *DeleteGroupUsecase
}

// NewServer は新しい通知グループサーバーを生成する。
// SQLiteデータベースの初期化とスキーマ作成を行う。
func NewServer(port string) (*Server, error) {
	sqlDB, err := sql.Open("sqlite", "/data/notification-group.db?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	auditURL := os.Getenv("AUDIT_URL")
	if auditURL == "" {
		auditURL = "http://localhost:8087"
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	store := NewStore(sqlDB)
	s := &Server{
		router:      router,
		port:        port,
		store:       store,
		db:          sqlDB,
		auditClient: httpclient.New(auditURL),
		createGroup: NewCreateGroupUsecase(store),
		listGroups:  NewListGroupsUsecase(store),
		getGroup:    NewGetGroupUsecase(store),
		updateGroup: NewUpdateGroupUsecase(store),
		deleteGroup: NewDeleteGroupUsecase(store),
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
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret-key"
	}

	api := s.router.Group("/api/v1")
	api.Use(middleware.JWTAuth(jwtSecret))
	{
		groups := api.Group("/notification-groups")
		{
			// 通知グループ作成
			groups.POST("", s.handleCreate())
			// 通知グループ一覧取得
			groups.GET("", s.handleList())
			// 通知グループ詳細取得
			groups.GET("/:id", s.handleGetByID())
			// 通知グループ名称変更
			groups.PATCH("/:id", s.handleUpdate())
			// 通知グループ削除
			groups.DELETE("/:id", s.handleDelete())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notification-group"})
	})
}

// createGroupRequest は通知グループ作成リクエストのJSON構造。
// テナントスコープのフィールドは受け付けない。スコープは必ず認証済み
// アイデンティティから解決する。name以外のフィールドは無視される。
type createGroupRequest struct {
	// Name はグループ名。必須性の検証はコマンドファクトリで行う。
	Name string `json:"name"`
}

// updateGroupRequest は通知グループ名称変更リクエストのJSON構造。
type updateGroupRequest struct {
	// Name は変更後のグループ名。必須性の検証はコマンドファクトリで行う。
	Name string `json:"name"`
}

// groupResponse は通知グループのJSONレスポンス構造。
type groupResponse struct {
	// ID は通知グループの一意識別子。
	ID string `json:"id"`
	// OrganizationID はグループが属する組織のID。
	OrganizationID string `json:"organization_id"`
	// EnvironmentID はグループが属する環境のID。
	EnvironmentID string `json:"environment_id"`
	// Name はグループ名。
	Name string `json:"name"`
	// CreatedBy はグループを作成したユーザーのID。
	CreatedBy string `json:"created_by"`
	// CreatedAt は作成日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
	// UpdatedAt は更新日時（RFC3339形式）。
	UpdatedAt string `json:"updated_at"`
}

// toGroupResponse はエンティティをJSONレスポンスに変換する。
func toGroupResponse(g NotificationGroup) groupResponse {
	return groupResponse{
		ID:             g.ID,
		OrganizationID: g.OrganizationID,
		EnvironmentID:  g.EnvironmentID,
		Name:           g.Name,
		CreatedBy:      g.CreatedBy,
		CreatedAt:      g.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      g.UpdatedAt.Format(time.RFC3339),
	}
}

// toGroupResponses はエンティティのスライスをJSONレスポンスのスライスに変換する。
func toGroupResponses(groups []NotificationGroup) []groupResponse {
	responses := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		responses = append(responses, toGroupResponse(g))
	}
	return responses
}

// callerIdentity はJWTAuthミドルウェアが解決した操作者のアイデンティティ。
// コマンド生成の必須引数としてハンドラからファクトリに明示的に渡す。
type callerIdentity struct {
	// OrganizationID は操作者が所属する組織のID。
	OrganizationID string
	// EnvironmentID は操作者が操作中の環境のID。
	EnvironmentID string
	// UserID は操作者のユーザーID。
	UserID string
}

// resolveIdentity はGinコンテキストから操作者のアイデンティティを解決する。
// アイデンティティが欠けている場合は401を返してfalseを返す。
func resolveIdentity(c *gin.Context) (callerIdentity, bool) {
	identity := callerIdentity{
		OrganizationID: middleware.GetOrganizationID(c),
		EnvironmentID:  middleware.GetEnvironmentID(c),
		UserID:         middleware.GetUserID(c),
	}
	if identity.UserID == "" || identity.OrganizationID == "" || identity.EnvironmentID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "認証情報からテナントを解決できません"})
		return callerIdentity{}, false
	}
	return identity, true
}

// respondError はドメインエラーをHTTPレスポンスに対応付ける。
// 検証エラーは400、スコープ付き検索のミスは404、それ以外は500になる。
func respondError(c *gin.Context, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  validationErr.Error(),
			"fields": validationErr.Fields,
		})
		return
	}
	if errors.Is(err, ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "通知グループが見つかりません"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "内部エラーが発生しました"})
	log.Printf("通知グループ操作エラー: %v", err)
}

// handleCreate は通知グループ作成を処理するハンドラを返す。
// 作成に成功した場合、NotificationGroupCreatedイベントを監査サービスに送信する。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := resolveIdentity(c)
		if !ok {
			return
		}

		var req createGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		cmd, err := NewCreateGroupCommand(identity.OrganizationID, identity.EnvironmentID, identity.UserID, req.Name)
		if err != nil {
			respondError(c, err)
			return
		}

		created, err := s.createGroup.Execute(c.Request.Context(), cmd)
		if err != nil {
			respondError(c, err)
			return
		}

		s.emitAudit(c, created.ID, event.TypeNotificationGroupCreated, event.NotificationGroupCreatedData{
			OrganizationID: created.OrganizationID,
			EnvironmentID:  created.EnvironmentID,
			Name:           created.Name,
		})

		c.JSON(http.StatusCreated, toGroupResponse(created))
	}
}

// handleList はテナントの通知グループ一覧取得を処理するハンドラを返す。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := resolveIdentity(c)
		if !ok {
			return
		}

		cmd, err := NewListGroupsCommand(identity.OrganizationID, identity.EnvironmentID, identity.UserID)
		if err != nil {
			respondError(c, err)
			return
		}

		groups, err := s.listGroups.Execute(c.Request.Context(), cmd)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, toGroupResponses(groups))
	}
}

// handleGetByID は通知グループ詳細取得を処理するハンドラを返す。
// 他テナントのグループは存在しないグループと同じ404になる。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := resolveIdentity(c)
		if !ok {
			return
		}

		cmd, err := NewGetGroupCommand(identity.OrganizationID, identity.EnvironmentID, identity.UserID, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		g, err := s.getGroup.Execute(c.Request.Context(), cmd)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, toGroupResponse(g))
	}
}

// handleUpdate は通知グループ名称変更を処理するハンドラを返す。
// 変更に成功した場合、NotificationGroupUpdatedイベントを監査サービスに送信する。
func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := resolveIdentity(c)
		if !ok {
			return
		}

		var req updateGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		cmd, err := NewUpdateGroupCommand(identity.OrganizationID, identity.EnvironmentID, identity.UserID, c.Param("id"), req.Name)
		if err != nil {
			respondError(c, err)
			return
		}

		updated, err := s.updateGroup.Execute(c.Request.Context(), cmd)
		if err != nil {
			respondError(c, err)
			return
		}

		s.emitAudit(c, updated.ID, event.TypeNotificationGroupUpdated, event.NotificationGroupUpdatedData{
			Name: updated.Name,
		})

		c.JSON(http.StatusOK, toGroupResponse(updated))
	}
}

// handleDelete は通知グループ削除を処理するハンドラを返す。
// 削除に成功した場合、NotificationGroupDeletedイベントを監査サービスに送信する。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := resolveIdentity(c)
		if !ok {
			return
		}

		cmd, err := NewDeleteGroupCommand(identity.OrganizationID, identity.EnvironmentID, identity.UserID, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		result, err := s.deleteGroup.Execute(c.Request.Context(), cmd)
		if err != nil {
			respondError(c, err)
			return
		}

		s.emitAudit(c, result.ID, event.TypeNotificationGroupDeleted, event.NotificationGroupDeletedData{
			OrganizationID: identity.OrganizationID,
			EnvironmentID:  identity.EnvironmentID,
		})

		c.JSON(http.StatusOK, gin.H{
			"id":      result.ID,
			"deleted": result.Deleted,
		})
	}
}

// emitAudit は監査サービスにイベントを送信する。
// 送信に失敗した場合はログに記録するが、呼び出し元にはエラーを返さない。
// ユースケース本体のストア呼び出しには影響しない。
func (s *Server) emitAudit(c *gin.Context, groupID string, eventType event.Type, data any) {
	e, err := event.New(
		fmt.Sprintf("notification-group-%s", groupID),
		event.AggregateTypeNotificationGroup,
		eventType,
		middleware.GetUserID(c),
		data,
	)
	if err != nil {
		log.Printf("監査イベントの生成に失敗: %v", err)
		return
	}

	ctx := httpclient.WithUserID(c.Request.Context(), middleware.GetUserID(c))
	ctx = httpclient.WithTenant(ctx, middleware.GetOrganizationID(c), middleware.GetEnvironmentID(c))
	if err := s.auditClient.PostJSON(ctx, "/api/v1/audit-events", e, nil); err != nil {
		log.Printf("監査サービスへのイベント送信に失敗: %v", err)
	}
}
