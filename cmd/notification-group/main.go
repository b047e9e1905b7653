// 通知グループサービスのエントリポイント。
// テナントスコープ（組織・環境）に閉じた通知グループのCRUD操作を提供する。
// すべての操作はテナントコンテキストを保持する不変のコマンドとして実行される。
package main

import (
	"log"
	"os"

	"github.com/notifyhub/notifyhub/internal/group"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8086"
	}

	server, err := group.NewServer(port)
	if err != nil {
		log.Fatalf("通知グループサーバーの初期化に失敗: %v", err)
	}

	log.Printf("通知グループサービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("通知グループサービスの起動に失敗: %v", err)
	}
}
