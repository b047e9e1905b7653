package gateway

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/notifyhub/notifyhub/pkg/middleware"
)

// Server はAPI Gatewayサービスの HTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// store はユーザーの永続化アクセサ。
	store *Store
	// db はSQLiteデータベース接続。
	db *sql.DB
	// jwtSecret はJWT署名用の秘密鍵。
	jwtSecret string
	// serviceURLs は内部サービスのURL。
	serviceURLs serviceURLConfig
}

// serviceURLConfig は内部サービスのURL設定。
type serviceURLConfig struct {
	NotificationGroup string
	Audit             string
}

// NewServer は新しいGatewayサーバーを生成する。
func NewServer(port string) (*Server, error) {
	sqlDB, err := sql.Open("sqlite", "/data/gateway.db?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret-key"
	}

	urls := serviceURLConfig{
		NotificationGroup: getEnvOr("NOTIFICATION_GROUP_URL", "http://localhost:8086"),
		Audit:             getEnvOr("AUDIT_URL", "http://localhost:8087"),
	}

	frontendURL := getEnvOr("FRONTEND_URL", "http://localhost:3000")

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{frontendURL}))

	s := &Server{
		router:      router,
		port:        port,
		store:       NewStore(sqlDB),
		db:          sqlDB,
		jwtSecret:   jwtSecret,
		serviceURLs: urls,
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
	// OAuth2認証エンドポイント（認証不要）
	auth := s.router.Group("/auth")
	{
		auth.GET("/github", s.handleGitHubLogin())
		auth.GET("/github/callback", s.handleGitHubCallback())
		auth.GET("/google", s.handleGoogleLogin())
		auth.GET("/google/callback", s.handleGoogleCallback())
		// 開発用トークン発行
		auth.POST("/dev-token", s.handleDevToken())
	}

	// 認証必須のAPIエンドポイント
	api := s.router.Group("/api/v1")
	api.Use(middleware.JWTAuth(s.jwtSecret))
	{
		// ユーザー情報
		api.GET("/me", s.handleGetCurrentUser())

		// 通知グループ（プロキシ）
		api.POST("/notification-groups", s.handleProxy(s.serviceURLs.NotificationGroup, "/api/v1/notification-groups"))
		api.GET("/notification-groups", s.handleProxy(s.serviceURLs.NotificationGroup, "/api/v1/notification-groups"))
		api.GET("/notification-groups/:id", s.handleProxyWithParam(s.serviceURLs.NotificationGroup, "/api/v1/notification-groups/", "id"))
		api.PATCH("/notification-groups/:id", s.handleProxyWithParam(s.serviceURLs.NotificationGroup, "/api/v1/notification-groups/", "id"))
		api.DELETE("/notification-groups/:id", s.handleProxyWithParam(s.serviceURLs.NotificationGroup, "/api/v1/notification-groups/", "id"))

		// 監査ログ
		api.GET("/audit-events/aggregate/:aggregate_id", s.handleProxyWithParam(s.serviceURLs.Audit, "/api/v1/audit-events/aggregate/", "aggregate_id"))
		api.GET("/audit-events/type/:event_type", s.handleProxyWithParam(s.serviceURLs.Audit, "/api/v1/audit-events/type/", "event_type"))
		api.GET("/audit-events/since", s.handleProxy(s.serviceURLs.Audit, "/api/v1/audit-events/since"))
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})
}

// handleDevToken は開発用JWTトークンを発行するハンドラを返す。
// 初回呼び出し時に開発用ユーザーと専用のテナント（組織・環境）を発行する。
// 本番環境では無効化すべき。
func (s *Server) handleDevToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.store.GetUserByProvider(c.Request.Context(), GetUserByProviderParams{
			Provider:       "dev",
			ProviderUserID: "dev-user",
		})
		if err == sql.ErrNoRows {
			user = User{
				ID:             uuid.New().String(),
				Provider:       "dev",
				ProviderUserID: "dev-user",
				Email:          "dev@localhost",
				DisplayName:    "開発ユーザー",
				OrganizationID: uuid.New().String(),
				EnvironmentID:  uuid.New().String(),
			}
			if err := s.store.CreateUser(c.Request.Context(), CreateUserParams{
				ID:             user.ID,
				Provider:       user.Provider,
				ProviderUserID: user.ProviderUserID,
				Email:          user.Email,
				DisplayName:    user.DisplayName,
				OrganizationID: user.OrganizationID,
				EnvironmentID:  user.EnvironmentID,
			}); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー作成に失敗しました"})
				log.Printf("開発ユーザー作成エラー: %v", err)
				return
			}
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー取得に失敗しました"})
			log.Printf("開発ユーザー取得エラー: %v", err)
			return
		} else {
			// 既存の開発ユーザーを使用
			if err := s.store.UpdateLastLogin(c.Request.Context(), user.ID); err != nil {
				log.Printf("最終ログイン日時の更新に失敗: %v", err)
			}
		}

		// テナントクレームは永続化済みのユーザー情報からのみ生成する
		token, err := middleware.GenerateJWT(s.jwtSecret, user.ID, user.Email, user.OrganizationID, user.EnvironmentID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークン生成に失敗しました"})
			log.Printf("JWT生成エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":           token,
			"user_id":         user.ID,
			"organization_id": user.OrganizationID,
			"environment_id":  user.EnvironmentID,
		})
	}
}

// handleGitHubLogin はGitHub OAuth2ログインを開始するハンドラを返す。
func (s *Server) handleGitHubLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := os.Getenv("GITHUB_CLIENT_ID")
		if clientID == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "GitHub OAuth2が設定されていません"})
			return
		}
		state := uuid.New().String()
		redirectURL := fmt.Sprintf("https://github.com/login/oauth/authorize?client_id=%s&state=%s&scope=user:email", clientID, state)
		c.Redirect(http.StatusTemporaryRedirect, redirectURL)
	}
}

// handleGitHubCallback はGitHub OAuth2コールバックを処理するハンドラを返す。
func (s *Server) handleGitHubCallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		// TODO: GitHub OAuth2のアクセストークン交換とユーザー情報取得を実装
		c.JSON(http.StatusNotImplemented, gin.H{"error": "GitHub OAuth2コールバックは未実装です。開発用トークン（POST /auth/dev-token）を使用してください。"})
	}
}

// handleGoogleLogin はGoogle OAuth2ログインを開始するハンドラを返す。
func (s *Server) handleGoogleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := os.Getenv("GOOGLE_CLIENT_ID")
		if clientID == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth2が設定されていません"})
			return
		}
		state := uuid.New().String()
		redirectURL := fmt.Sprintf("https://accounts.google.com/o/oauth2/v2/auth?client_id=%s&response_type=code&scope=openid%%20email%%20profile&state=%s&redirect_uri=%s/auth/google/callback",
			clientID, state, getEnvOr("FRONTEND_URL", "http://localhost:8080"))
		c.Redirect(http.StatusTemporaryRedirect, redirectURL)
	}
}

// handleGoogleCallback はGoogle OAuth2コールバックを処理するハンドラを返す。
func (s *Server) handleGoogleCallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		// TODO: Google OAuth2のアクセストークン交換とユーザー情報取得を実装
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Google OAuth2コールバックは未実装です。開発用トークン（POST /auth/dev-token）を使用してください。"})
	}
}

// handleGetCurrentUser は認証済みユーザーの情報を返すハンドラを返す。
func (s *Server) handleGetCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		user, err := s.store.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":              user.ID,
			"email":           user.Email,
			"display_name":    user.DisplayName,
			"provider":        user.Provider,
			"organization_id": user.OrganizationID,
			"environment_id":  user.EnvironmentID,
		})
	}
}

// handleProxy は指定されたサービスにリクエストをプロキシするハンドラを返す。
func (s *Server) handleProxy(baseURL, path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		proxyURL := baseURL + path
		if c.Request.URL.RawQuery != "" {
			proxyURL += "?" + c.Request.URL.RawQuery
		}
		s.doProxy(c, c.Request.Method, proxyURL)
	}
}

// handleProxyWithParam はURLパラメータを含むプロキシハンドラを返す。
func (s *Server) handleProxyWithParam(baseURL, pathPrefix, paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		proxyURL := baseURL + pathPrefix + c.Param(paramName)
		if c.Request.URL.RawQuery != "" {
			proxyURL += "?" + c.Request.URL.RawQuery
		}
		s.doProxy(c, c.Request.Method, proxyURL)
	}
}

// doProxy はリクエストを内部サービスにプロキシする共通処理。
// JWTトークンと、解決済みのユーザーID・テナントスコープのヘッダーを転送する。
func (s *Server) doProxy(c *gin.Context, method, url string) {
	req, err := http.NewRequestWithContext(c.Request.Context(), method, url, c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "プロキシリクエストの作成に失敗しました"})
		return
	}

	// 元のリクエストヘッダーを転送
	req.Header.Set("Content-Type", c.GetHeader("Content-Type"))
	req.Header.Set("Authorization", c.GetHeader("Authorization"))
	req.Header.Set("X-User-ID", middleware.GetUserID(c))
	req.Header.Set("X-Organization-ID", middleware.GetOrganizationID(c))
	req.Header.Set("X-Environment-ID", middleware.GetEnvironmentID(c))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "内部サービスとの通信に失敗しました"})
		log.Printf("プロキシエラー: url=%s, error=%v", url, err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "レスポンスの読み取りに失敗しました"})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	c.Data(resp.StatusCode, contentType, body)
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
