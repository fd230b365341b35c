package main

import (
	"log"
	"os"

	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/rockfridrich/villa/adapters/events"
	"github.com/rockfridrich/villa/adapters/store"
	"github.com/rockfridrich/villa/adapters/surface"
	"github.com/rockfridrich/villa/adapters/tokenizer"
	"github.com/rockfridrich/villa/bridge"
	"github.com/rockfridrich/villa/service"
	"github.com/rockfridrich/villa/transport/http"
)

// installationID identifies this installation's identity record
func installationID() string {
	if id := os.Getenv("VILLA_INSTALLATION_ID"); id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil {
		return "default"
	}
	return host
}

func main() {
	// Generate a new ECDSA key pair (you would normally load this from somewhere secure)
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}

	// Get Redis URL from environment
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	// Parse Redis URL and create client
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}

	redisClient := redis.NewClient(opts)

	// Initialize Watermill Redis publisher
	logger := watermill.NewStdLogger(false, false)
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		logger,
	)
	if err != nil {
		log.Fatalf("Failed to create Redis publisher: %v", err)
	}

	tok := tokenizer.NewJWTTokenizer(privateKey)
	profiles := store.NewRedisProfileStore(redisClient)
	nicknames := store.NewRedisNicknameRegistry(redisClient)
	ledger := store.NewRedisSpendLedger(redisClient)
	identities := store.NewRedisIdentityStore(redisClient, installationID())
	eventPub := events.NewWatermillPublisher(publisher)

	profileService := service.NewProfileService(profiles, nicknames)
	relayService := service.NewRelayService(profiles, ledger, logger)

	authBridge := bridge.New(&surface.HTTPOpener{Logger: logger}, identities, bridge.Options{
		ServiceURL: os.Getenv("VILLA_AUTH_URL"),
		Tokenizer:  tok,
		Events:     eventPub,
		Logger:     logger,
	})

	// Setup Gin router
	router := http.SetupRouter(profileService, relayService, tok, authBridge)

	addr := os.Getenv("PORT")
	if addr == "" {
		addr = ":9000"
	} else if addr[0] != ':' {
		addr = ":" + addr
	}

	// Start server
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
