package main

import (
	"log"
)

func main() {
	log.Println("[Main] 通知中转服务启动中...")

	runner := NewApplicationRunner()
	runner.Run()

	log.Println("[Main] 通知中转服务已停止")
}
