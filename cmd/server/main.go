package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/dkosir/partnerhub/internal/config"
	"github.com/dkosir/partnerhub/internal/database"
	"github.com/dkosir/partnerhub/internal/fanout"
	"github.com/dkosir/partnerhub/internal/presence"
	"github.com/dkosir/partnerhub/internal/provider"
	postgresrepo "github.com/dkosir/partnerhub/internal/repository/postgres"
	"github.com/dkosir/partnerhub/internal/service"
	"github.com/dkosir/partnerhub/internal/transport/http/handlers"
	"github.com/dkosir/partnerhub/internal/transport/http/middleware"
	"github.com/dkosir/partnerhub/internal/transport/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	// Presence store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	// Messaging provider client, constructed once and injected everywhere.
	providerClient := provider.NewHTTPClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey)

	// Repositories
	roomRepo := postgresrepo.NewRoomRepo(pool)
	userRepo := postgresrepo.NewUserRepo(pool)

	// Presence directory
	directory := presence.NewDirectory(
		presence.NewRedisStore(redisClient),
		cfg.PresenceTTL,
		presence.ParseSessionPolicy(cfg.SessionPolicy),
	)

	// Realtime transport + fanout
	hub := ws.NewHub()
	go hub.Run()
	dispatcher := fanout.NewDispatcher(directory, hub)
	defer dispatcher.Close()

	// Services
	brokerService := service.NewBrokerService(roomRepo, userRepo, providerClient)
	membershipService := service.NewMembershipService(roomRepo, userRepo, providerClient, dispatcher, cfg.MemberBatchSize)
	messageService := service.NewMessageService(brokerService, roomRepo, userRepo, providerClient, dispatcher)
	searchService := service.NewSearchService(userRepo, providerClient)

	// Handlers
	chatHandler := handlers.NewChatHandler(brokerService, membershipService, messageService, searchService)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, directory, cfg.JWTSecret))

	// Protected - Channels
	mux.Handle("POST /api/v1/channels", auth(http.HandlerFunc(chatHandler.CreateOrGetChannel)))
	mux.Handle("GET /api/v1/channels", auth(http.HandlerFunc(chatHandler.ListChannels)))
	mux.Handle("GET /api/v1/channels/search", auth(http.HandlerFunc(chatHandler.SearchChannels)))
	mux.Handle("DELETE /api/v1/channels/{id}", auth(http.HandlerFunc(chatHandler.DeleteChannel)))

	// Protected - Members
	mux.Handle("POST /api/v1/channels/{id}/members", auth(http.HandlerFunc(chatHandler.AddMembers)))
	mux.Handle("DELETE /api/v1/channels/{id}/members/{uid}", auth(http.HandlerFunc(chatHandler.RemoveMember)))

	// Protected - Messages
	mux.Handle("POST /api/v1/messages", auth(http.HandlerFunc(chatHandler.SendMessage)))
	mux.Handle("GET /api/v1/channels/{id}/messages", auth(http.HandlerFunc(chatHandler.ListMessages)))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, middleware.CORS(mux)))
}
