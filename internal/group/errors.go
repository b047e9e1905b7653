package group

import (
	"errors"
	"fmt"
	"strings"
)

// ErrGroupNotFound はテナントスコープ付き検索でエンティティが見つからなかったことを表す。
// IDの誤り・他テナントのエンティティ・削除済みエンティティのいずれの場合も
// このエラーになる。呼び出し側がテナントの存在を探れないよう、原因は区別しない。
var ErrGroupNotFound = errors.New("通知グループが見つかりません")

// ValidationError はコマンド生成時の必須フィールド検証エラーを表す。
// Fieldsには不足または不正なフィールド名がすべて含まれる。
type ValidationError struct {
	// Fields は検証に失敗したフィールド名のリスト。
	Fields []string
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return fmt.Sprintf("必須フィールドが不足しています: %s", strings.Join(e.Fields, ", "))
}

// StoreError は永続化層からの内部エラーを表す。
// ユースケースはこのエラーを回復せず、そのまま呼び出し側に伝播する。
type StoreError struct {
	// Op は失敗した操作名。
	Op string
	// Err は永続化層から返された元のエラー。
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *StoreError) Error() string {
	return fmt.Sprintf("ストア操作 %s に失敗: %v", e.Op, e.Err)
}

// Unwrap はラップされた元のエラーを返す。
func (e *StoreError) Unwrap() error {
	return e.Err
}
