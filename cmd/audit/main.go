// 監査ログサービスのエントリポイント。
// 通知グループへの状態変更を不変のイベントレコードとして追記のみで永続化する。
package main

import (
	"log"
	"os"

	"github.com/notifyhub/notifyhub/internal/audit"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8087"
	}

	server, err := audit.NewServer(port)
	if err != nil {
		log.Fatalf("監査サーバーの初期化に失敗: %v", err)
	}

	log.Printf("監査サービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("監査サービスの起動に失敗: %v", err)
	}
}
