package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims はJWTトークンのクレーム（ペイロード）を表す。
// ユーザーIDとテナントスコープ（組織ID・環境ID）をサービス間で伝播するために使用する。
type JWTClaims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーの一意識別子。
	UserID string `json:"user_id"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
	// OrganizationID はユーザーが所属する組織の一意識別子。
	OrganizationID string `json:"org_id"`
	// EnvironmentID はユーザーが操作中の環境の一意識別子。
	EnvironmentID string `json:"env_id"`
}

const (
	// headerKeyUserID はサービス間でユーザーIDを伝播するためのHTTPヘッダーキー。
	headerKeyUserID = "X-User-ID"
	// headerKeyOrganizationID はサービス間で組織IDを伝播するためのHTTPヘッダーキー。
	headerKeyOrganizationID = "X-Organization-ID"
	// headerKeyEnvironmentID はサービス間で環境IDを伝播するためのHTTPヘッダーキー。
	headerKeyEnvironmentID = "X-Environment-ID"
)

// GenerateJWT はユーザー情報とテナントスコープからJWTトークンを生成する。
// gatewayサービスが認証後に呼び出す。テナントスコープは永続化済みの
// ユーザー情報から取得すること。リクエストボディ由来の値を渡してはならない。
func GenerateJWT(secret, userID, email, organizationID, environmentID string) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "notifyhub-gateway",
		},
		UserID:         userID,
		Email:          email,
		OrganizationID: organizationID,
		EnvironmentID:  environmentID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// JWTAuth はJWTトークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに "user_id"・"email"・
// "organization_id"・"environment_id" を設定する。
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorizationヘッダーが必要です",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer トークン形式が不正です",
			})
			return
		}

		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("organization_id", claims.OrganizationID)
		c.Set("environment_id", claims.EnvironmentID)
		c.Header(headerKeyUserID, claims.UserID)
		c.Header(headerKeyOrganizationID, claims.OrganizationID)
		c.Header(headerKeyEnvironmentID, claims.EnvironmentID)
		c.Next()
	}
}

// GetUserID はGinコンテキストからユーザーIDを取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetUserID(c *gin.Context) string {
	return getStringValue(c, "user_id")
}

// GetOrganizationID はGinコンテキストから組織IDを取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetOrganizationID(c *gin.Context) string {
	return getStringValue(c, "organization_id")
}

// GetEnvironmentID はGinコンテキストから環境IDを取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetEnvironmentID(c *gin.Context) string {
	return getStringValue(c, "environment_id")
}

// getStringValue はGinコンテキストから文字列値を取得する共通処理。
func getStringValue(c *gin.Context, key string) string {
	value, _ := c.Get(key)
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}
