// Package gateway はAPI Gatewayサービスの内部実装を提供する。
//
// OAuth2認証（GitHub/Google）、テナントスコープ付きJWTの発行、
// リクエストルーティングを担当する。外部からアクセス可能な唯一のサービスであり、
// セキュリティの境界線として機能する。発行するJWTにはユーザーIDに加えて
// 組織IDと環境IDが含まれ、内部サービスはこのクレームだけを信頼して
// テナントスコープを解決する。リクエストボディ由来のテナント情報が
// 内部サービスに到達する経路は存在しない。
package gateway
