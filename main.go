package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"kokoro/pkg/cache"
	"kokoro/pkg/companion"
	"kokoro/pkg/config"
	"kokoro/pkg/discord"
	"kokoro/pkg/memory"
	"kokoro/pkg/metrics"
	"kokoro/pkg/persona"
	"kokoro/pkg/surreal"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load config.yml
	cfg, err := config.LoadConfig("config.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load .env for secrets
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	store, closeStore := openStore(cfg)
	defer closeStore()

	metricsManager := metrics.NewManager(metrics.Config{
		Enabled: cfg.Metrics.Enabled,
		Port:    cfg.Metrics.Port,
		Path:    cfg.Metrics.Path,
	})
	go func() {
		if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			log.Printf("[Metrics] %v", err)
		}
	}()

	seed := cfg.Drift.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	registry := companion.NewRegistry(
		store,
		persona.NewEngine(cfg.Engine.LearningRate),
		persona.NewDrifter(rand.New(rand.NewSource(seed)), cfg.Drift.Jitter),
		metricsManager,
		companion.Options{
			DefaultQuality:      cfg.Engine.DefaultInteractionQuality,
			ImportanceThreshold: cfg.Memory.ImportanceThreshold,
			SaveQueueSize:       cfg.Memory.SaveQueueSize,
		},
	)

	interval := time.Duration(cfg.Drift.IntervalMinutes * float64(time.Minute))
	go registry.RunDriftLoop(ctx, interval)

	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		dg := startDiscord(token, registry)
		defer dg.Close()
	} else {
		log.Println("DISCORD_TOKEN not set, running without the Discord adapter")
	}

	log.Println("Companion service is now running. Press CTRL-C to exit.")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := registry.Close(shutdownCtx); err != nil {
		log.Printf("[Companion] Shutdown incomplete: %v", err)
	}
}

// openStore picks the persistence backend from the environment: SurrealDB
// when SURREAL_DB_HOST is set, otherwise Badger (or plain files with
// COMPANION_STORE=file) under the data directory. REDIS_URL adds a
// read-through cache in front of whichever backend is chosen.
func openStore(cfg *config.Config) (memory.Store, func()) {
	var store memory.Store
	var closers []func()

	if surrealHost := os.Getenv("SURREAL_DB_HOST"); surrealHost != "" {
		surrealUser := os.Getenv("SURREAL_DB_USER")
		surrealPass := os.Getenv("SURREAL_DB_PASS")
		surrealNS := os.Getenv("SURREAL_DB_NAMESPACE")
		surrealDB := os.Getenv("SURREAL_DB_DATABASE")

		if surrealUser == "" {
			log.Fatal("Missing required environment variable: SURREAL_DB_USER")
		}
		if surrealPass == "" {
			log.Fatal("Missing required environment variable: SURREAL_DB_PASS")
		}
		if surrealNS == "" {
			surrealNS = "kokoro"
		}
		if surrealDB == "" {
			surrealDB = "companions"
		}

		surrealHost = surreal.NormalizeHost(surrealHost)
		log.Printf("[Store] Connecting to SurrealDB at %s (NS: %s, DB: %s)", surrealHost, surrealNS, surrealDB)
		client, err := surreal.NewClient(surrealHost, surrealUser, surrealPass, surrealNS, surrealDB)
		if err != nil {
			log.Fatalf("Failed to connect to SurrealDB: %v", err)
		}
		closers = append(closers, client.Close)
		store = memory.NewSurrealStore(client)
	} else {
		dataDir := os.Getenv("COMPANION_DATA_DIR")
		if dataDir == "" {
			dataDir = cfg.Memory.DataDir
		}

		if os.Getenv("COMPANION_STORE") == "file" {
			log.Printf("[Store] Using JSON files in %s", dataDir)
			store = memory.NewFileStore(dataDir)
		} else {
			path := filepath.Join(dataDir, "badger")
			log.Printf("[Store] Using Badger at %s", path)
			badgerStore, err := memory.NewBadgerStore(memory.BadgerConfig{Path: path, SyncWrites: true})
			if err != nil {
				log.Fatalf("Failed to open Badger store: %v", err)
			}
			closers = append(closers, func() {
				if err := badgerStore.Close(); err != nil {
					log.Printf("[Store] Error closing Badger: %v", err)
				}
			})
			store = badgerStore
		}
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisCache, err := cache.NewRedisCache(redisURL, "kokoro")
		if err != nil {
			log.Printf("[Store] Redis unavailable, continuing without cache: %v", err)
		} else {
			log.Println("[Store] Redis read-through cache enabled")
			closers = append(closers, func() { redisCache.Close() })
			store = memory.NewCachedStore(store, redisCache)
		}
	}

	return store, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

func startDiscord(token string, registry *companion.Registry) *discordgo.Session {
	handler := discord.NewHandler(registry)

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		log.Fatalf("Error creating Discord session: %v", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	dg.AddHandler(handler.MessageCreate)
	dg.AddHandler(handler.InteractionCreate)

	if err := dg.Open(); err != nil {
		log.Fatalf("Error opening connection: %v", err)
	}
	handler.SetBotID(dg.State.User.ID)

	guildID := os.Getenv("DISCORD_GUILD_ID")
	if _, err := discord.RegisterSlashCommands(dg, guildID); err != nil {
		log.Printf("[Discord] Error registering slash commands: %v", err)
	}
	return dg
}
