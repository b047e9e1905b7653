// Package httpclient はサービス間のHTTP通信を行うクライアントを提供する。
//
// 各サービスが他のサービスのAPIを呼び出す際に使用する。
// 監査サービスへのイベント送信など、サービス間の通信パターンを統一し、
// 操作者のアイデンティティとテナントスコープをヘッダーで伝播する。
package httpclient
