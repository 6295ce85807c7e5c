// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/parlourgames/monopoly/internal/auth"
	"github.com/parlourgames/monopoly/internal/cache"
	"github.com/parlourgames/monopoly/internal/database"
	"github.com/parlourgames/monopoly/internal/handlers"
	"github.com/parlourgames/monopoly/internal/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Redis is optional; the action log degrades to a no-op without it.
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("Redis unavailable, action log disabled: %v", err)
	}

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler)
	mux.HandleFunc("/user/claim", handlers.ClaimEphemeralHandler)

	// game server: create + state endpoints, plus the per-seat websocket
	srv := handlers.NewGameServer(logger)

	mux.Handle("/game/create", middleware.LogMiddleware(logger)(srv))
	mux.Handle("/game/state/", middleware.LogMiddleware(logger)(srv))

	mux.Handle("/game/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.GameWSHandler(logger, srv),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
