package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/avolkov/relay/internal/auth"
	"github.com/avolkov/relay/internal/config"
	"github.com/avolkov/relay/internal/handlers"
	"github.com/avolkov/relay/internal/middleware"
	"github.com/avolkov/relay/internal/notify"
	"github.com/avolkov/relay/internal/store/sqlstore"
	"github.com/avolkov/relay/internal/ws"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	st, err := sqlstore.New(cfg.DBDriver, cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open store")
	}
	defer st.Close()

	verifier := auth.NewVerifier([]byte(cfg.JWTSecret), cfg.TokenTTL, st, log)
	registry := ws.NewRegistry(log)
	gateway := ws.NewGateway(st, verifier, registry, cfg.SendBuffer, cfg.MaxMessageSize, log)
	notifier := notify.New(st, registry, log)

	authHandler := &handlers.AuthHandler{Store: st, Verifier: verifier, Log: log}
	chatHandler := &handlers.ChatHandler{Store: st, Notifier: notifier, Log: log}

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))

	// REST endpoints
	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")

	api := r.NewRoute().Subrouter()
	api.Use(middleware.Auth(verifier))
	api.HandleFunc("/chats", chatHandler.CreateChat).Methods("POST")
	api.HandleFunc("/chats/{id:[0-9]+}/invite", chatHandler.InviteUser).Methods("POST")
	api.HandleFunc("/chats/{id:[0-9]+}/messages", chatHandler.GetChatMessages).Methods("GET")

	// WebSocket endpoints
	r.HandleFunc("/chat/{id:[0-9]+}", gateway.ServeChat)
	r.HandleFunc("/chat/{id:[0-9]+}/{invite}", gateway.ServeChat)
	r.HandleFunc("/notifications/{id:[0-9]+}", gateway.ServeNotifications)

	srv := &http.Server{Addr: cfg.Addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	// Live sessions are process-local state; clients reconnect after restart.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
