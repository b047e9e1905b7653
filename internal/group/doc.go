// Package group は通知グループサービスの内部実装を提供する。
//
// 通知グループは通知テンプレートを整理するための名前付きのグルーピングで、
// テナントスコープ（組織ID・環境ID）に閉じたリソースとして管理される。
// すべての操作は、テナントスコープと操作者IDを保持する不変のコマンドに
// 変換されてからユースケースで実行される。コマンドの生成自体がバリデーションの
// ゲートであり、必須フィールドを欠いたコマンドがユースケースに渡ることはない。
//
// 読み取り・更新・削除は必ず (organization_id, environment_id, id) で
// フィルタされる。他テナントのエンティティは、存在しないエンティティと
// 区別がつかない形で「見つからない」として扱われる。
package group
