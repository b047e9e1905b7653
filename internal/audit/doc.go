// Package audit は監査ログサービスの内部実装を提供する。
//
// 通知グループへの状態変更（作成・名称変更・削除）を不変のイベントレコードとして
// 追記のみ（append-only）で永続化する。レコードの更新・削除経路は存在しない。
//
// 主な機能:
//   - 監査イベントの追記（Append）
//   - AggregateIDによるイベント取得（エンティティ単位の変更履歴）
//   - イベントタイプによるイベント取得
//   - 日時指定によるイベント取得
//
// 内部ネットワークからのみ呼び出される前提の内部APIであり、
// JWT検証はgatewayと各サービスの境界で完了している。
// そのため追記時のX-User-IDヘッダーは検証済みの呼び出し元識別子として
// そのまま信頼し、本サービス側では再検証しない。
package audit
