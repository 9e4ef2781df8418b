package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/internal/api"
	"chat-relay/internal/chat"
	"chat-relay/internal/config"
	"chat-relay/internal/store"
	"chat-relay/internal/tasks"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func serveWS(h *chat.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Upgrade error: %v", err)
			return
		}

		client := chat.NewClient(h, conn)
		client.Hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}

func openMessageLog(cfg *config.Config) (store.MessageLog, error) {
	if cfg.MessageStore == "pebble" {
		return store.OpenPebbleLog(cfg.MessageDir)
	}
	return store.NewMemoryLog(), nil
}

func main() {
	cfg := config.Load()

	users, err := store.OpenUsers(cfg.UsersFile)
	if err != nil {
		log.Fatal("Failed to open user store: ", err)
	}

	messages, err := openMessageLog(cfg)
	if err != nil {
		log.Fatal("Failed to open message log: ", err)
	}
	defer messages.Close()

	h := chat.NewHub(messages)
	go h.Run()

	reporter := tasks.NewStatsReporter(h).Start()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(users, serveWS(h)),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Printf("🚀 Chat relay listening on :%s...\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	fmt.Println("\nShutdown signal received. Cleaning up...")
	reporter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}

	close(h.Quit)
	time.Sleep(500 * time.Millisecond)
	fmt.Println("Graceful shutdown complete. Goodnight!")
}
