package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/sablier-labs/merkle-api/pkg/api"
	"github.com/sablier-labs/merkle-api/pkg/config"
	"github.com/sablier-labs/merkle-api/pkg/ipfs"
	"github.com/sablier-labs/merkle-api/pkg/logger"
	"github.com/sablier-labs/merkle-api/pkg/persistence"
	badgerStore "github.com/sablier-labs/merkle-api/pkg/persistence/badger"
	memoryStore "github.com/sablier-labs/merkle-api/pkg/persistence/memory"
	redisStore "github.com/sablier-labs/merkle-api/pkg/persistence/redis"
)

func main() {
	app := &cli.App{
		Name:  "merkle-api",
		Usage: "Merkle airdrop campaign service",
		Description: `An HTTP service for token airdrop campaigns.

The service implements:
- CSV recipient list validation (EVM and Solana address formats)
- Merkle commitment tree construction with inclusion proofs
- Campaign publication to IPFS via Pinata
- Local campaign storage with paginated recipient queries`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   3000,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvMerkleAPIPort},
			},
			&cli.StringFlag{
				Name:     "bearer-token",
				Usage:    "Bearer token guarding the eligibility endpoint",
				EnvVars:  []string{config.EnvMerkleAPIBearerToken},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   "badger",
				Usage:   "Campaign store backend: badger, redis or memory",
				EnvVars: []string{config.EnvMerkleAPIStore},
			},
			&cli.StringFlag{
				Name:    "badger-path",
				Value:   "./data/campaigns",
				Usage:   "Data directory for the badger store",
				EnvVars: []string{config.EnvMerkleAPIBadgerPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis server address (host:port) for the redis store",
				EnvVars: []string{config.EnvMerkleAPIRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvMerkleAPIRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Value:   0,
				Usage:   "Redis database number",
				EnvVars: []string{config.EnvMerkleAPIRedisDB},
			},
			&cli.StringFlag{
				Name:    "pinata-api-server",
				Value:   "https://api.pinata.cloud",
				Usage:   "Pinata pinning API base URL",
				EnvVars: []string{config.EnvPinataAPIServer},
			},
			&cli.StringFlag{
				Name:     "pinata-api-key",
				Usage:    "Pinata API key",
				EnvVars:  []string{config.EnvPinataAPIKey},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "pinata-secret-api-key",
				Usage:    "Pinata secret API key",
				EnvVars:  []string{config.EnvPinataSecretAPIKey},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "pinata-access-token",
				Usage:   "Pinata gateway token appended to download requests",
				EnvVars: []string{config.EnvPinataAccessToken},
			},
			&cli.StringFlag{
				Name:     "ipfs-gateway",
				Usage:    "IPFS gateway base URL for campaign downloads",
				EnvVars:  []string{config.EnvIPFSGateway},
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvMerkleAPIVerbose},
			},
		},
		Action: runMerkleAPI,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runMerkleAPI(c *cli.Context) error {
	// Create logger
	loggerConfig := &logger.LoggerConfig{
		Debug: c.Bool("verbose"),
	}
	l, err := logger.NewLogger(loggerConfig)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	// Parse configuration from flags/environment
	cfg := parseServerConfig(c)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Open the campaign store
	store, err := openStore(cfg, l)
	if err != nil {
		return fmt.Errorf("failed to open campaign store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.HealthCheck(); err != nil {
		return fmt.Errorf("campaign store health check failed: %w", err)
	}

	// Create the IPFS publication client
	ipfsClient, err := ipfs.NewClient(ipfs.ClientConfig{
		APIServer:    cfg.PinataAPIServer,
		APIKey:       cfg.PinataAPIKey,
		SecretAPIKey: cfg.PinataSecretAPIKey,
		Gateway:      cfg.IPFSGateway,
		AccessToken:  cfg.PinataAccessToken,
	}, l)
	if err != nil {
		return fmt.Errorf("failed to create IPFS client: %w", err)
	}

	if c.Bool("verbose") {
		l.Sugar().Infow("Merkle API Configuration",
			"port", cfg.Port,
			"store", cfg.Store,
			"pinata_api_server", cfg.PinataAPIServer,
			"ipfs_gateway", cfg.IPFSGateway)
	}

	// Start the HTTP server
	server := api.NewServer(cfg, store, ipfsClient, l)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	l.Sugar().Infow("Merkle API running", "port", cfg.Port)
	l.Sugar().Infow("Available endpoints",
		"create", "POST /api/create",
		"eligibility", "GET /api/eligibility",
		"recipients", "GET /api/recipients/{guid}",
		"health", "GET /api/health")

	// Block until interrupted; Badger needs a clean close to compact its
	// value log.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	l.Sugar().Infow("Shutting down", "signal", sig.String())
	if err := server.Stop(); err != nil {
		l.Sugar().Warnw("Failed to stop HTTP server", "error", err)
	}

	return nil
}

func parseServerConfig(c *cli.Context) *config.ServerConfig {
	return &config.ServerConfig{
		Port:               c.Int("port"),
		BearerToken:        c.String("bearer-token"),
		Store:              config.StoreBackend(c.String("store")),
		BadgerPath:         c.String("badger-path"),
		RedisAddress:       c.String("redis-address"),
		RedisPassword:      c.String("redis-password"),
		RedisDB:            c.Int("redis-db"),
		PinataAPIServer:    c.String("pinata-api-server"),
		PinataAPIKey:       c.String("pinata-api-key"),
		PinataSecretAPIKey: c.String("pinata-secret-api-key"),
		PinataAccessToken:  c.String("pinata-access-token"),
		IPFSGateway:        c.String("ipfs-gateway"),
		Verbose:            c.Bool("verbose"),
	}
}

func openStore(cfg *config.ServerConfig, l *zap.Logger) (persistence.ICampaignStore, error) {
	switch cfg.Store {
	case config.StoreBackendBadger:
		return badgerStore.NewBadgerStore(cfg.BadgerPath, l)
	case config.StoreBackendRedis:
		return redisStore.NewRedisStore(&redisStore.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, l)
	case config.StoreBackendMemory:
		return memoryStore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store)
	}
}
