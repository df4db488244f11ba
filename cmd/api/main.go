package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"chatcore/internal/auth"
	"chatcore/internal/chatsvc"
	"chatcore/internal/config"
	"chatcore/internal/httpapi"
	"chatcore/internal/realtime"
	"chatcore/internal/store"
	"chatcore/internal/ws"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	st := store.New(db)
	if err := st.AutoMigrate(); err != nil {
		logger.Error("failed to migrate", "error", err)
		os.Exit(1)
	}

	broadcaster := newBroadcaster(cfg, logger)

	hub := ws.NewHub(logger, broadcaster)
	tokens := auth.NewService(st, cfg.JWTSecret)
	conversations := chatsvc.NewConversationService(st, logger)
	groups := chatsvc.NewGroupService(st, logger)

	chatHandler := realtime.NewChatHandler(st, hub, logger)
	receiptHandler := realtime.NewReceiptHandler(st, hub, logger)
	presenceHandler := realtime.NewPresenceHandler(st, hub, logger)
	typingHandler := realtime.NewTypingHandler(st, hub)

	dispatcher := ws.NewDispatcher(hub, ws.Handlers{
		Authenticate: httpapi.AuthenticateFn(tokens),
		ChatSend: func(ctx context.Context, conn *ws.Connection, frameID string, payload ws.ChatSendPayload) {
			chatHandler.Send(ctx, conn, frameID, payload)
		},
		ChatRead: func(ctx context.Context, conn *ws.Connection, payload ws.ChatReadPayload) {
			receiptHandler.HandleRead(ctx, conn, payload)
		},
		ChatTyping: func(ctx context.Context, conn *ws.Connection, payload ws.ChatTypingPayload) {
			typingHandler.HandleTyping(ctx, conn, payload)
		},
		OnAuthenticated: func(ctx context.Context, conn *ws.Connection, userID string) {
			isFirst := hub.ConnectionsForUser(userID) == 1
			presenceHandler.OnAuthenticated(ctx, userID, isFirst)
		},
	}, logger)

	wsHandler := httpapi.NewWSHandler(hub, dispatcher, presenceHandler, cfg.NodeEnv == "dev", logger)

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:          httpapi.NewAuthHandler(st, tokens, logger),
		Users:         httpapi.NewUserHandler(st, logger),
		Contacts:      httpapi.NewContactHandler(st, logger),
		Conversations: httpapi.NewConversationHandler(conversations, logger),
		Groups:        httpapi.NewGroupHandler(groups, st, logger),
		Messages:      httpapi.NewMessageHandler(st, hub, logger),
		Health:        httpapi.NewHealthHandler(hub, time.Now()),
		WS:            wsHandler,
		Tokens:        tokens,
		Hub:           hub,
	})

	heartbeatCtx, stopHeartbeat := context.WithCancel(context.Background())
	go hub.RunHeartbeat(heartbeatCtx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopHeartbeat()
	hub.Shutdown(5 * time.Second)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func newBroadcaster(cfg config.Config, logger *slog.Logger) ws.Broadcaster {
	if cfg.RedisURL == "" {
		return ws.NoopBroadcaster{}
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid REDIS_URL, falling back to in-process broadcaster", "error", err)
		return ws.NoopBroadcaster{}
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, falling back to in-process broadcaster", "error", err)
		return ws.NoopBroadcaster{}
	}
	return ws.NewRedisBroadcaster(client, logger)
}
