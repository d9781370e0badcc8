package redis

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sablier-labs/merkle-api/pkg/persistence"
	"github.com/sablier-labs/merkle-api/pkg/types"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixCampaign    = "merkle:campaign:"
	keyPrefixCidIndex    = "merkle:cid:"
	keySchemaVersion     = "merkle:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Key set for listing operations (Redis doesn't support prefix iteration natively)
	keySetCampaigns = "merkle:campaigns:index"
)

// RedisStore is a production-ready campaign store using Redis.
// Provides durable, distributed storage suitable for cloud-native deployments.
type RedisStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string // Custom prefix for all keys
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys (for multi-tenant setups).
	// If set, this prefix is prepended to all keys, e.g., "myapp:" would result in
	// keys like "myapp:merkle:campaign:abc". If empty, keys use the default "merkle:" prefix.
	KeyPrefix string
}

// NewRedisStore creates a new Redis-backed campaign store.
func NewRedisStore(cfg *RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	opts := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rs := &RedisStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rs.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if cfg.KeyPrefix != "" {
		logger.Sugar().Infow("Redis campaign store initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)
	} else {
		logger.Sugar().Infow("Redis campaign store initialized", "address", cfg.Address, "db", cfg.DB)
	}

	return rs, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisStore) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

// initSchema initializes or validates the schema version
func (r *RedisStore) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		// First time setup - set schema version
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}

	return nil
}

// SaveCampaign persists a campaign
func (r *RedisStore) SaveCampaign(campaign *persistence.StoredCampaign) error {
	if campaign == nil {
		return fmt.Errorf("cannot save nil StoredCampaign")
	}
	if campaign.Guid == "" {
		return fmt.Errorf("cannot save campaign with empty guid")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("campaign store is closed")
	}

	ctx := context.Background()

	data, err := persistence.MarshalCampaign(campaign)
	if err != nil {
		return fmt.Errorf("failed to marshal StoredCampaign: %w", err)
	}

	key := r.prefixKey(keyPrefixCampaign + campaign.Guid)
	indexKey := r.prefixKey(keySetCampaigns)

	// Store using a pipeline for atomicity
	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, indexKey, campaign.Guid) // Add to index set
	if campaign.Cid != "" {
		// Secondary index for content-address lookups
		pipe.Set(ctx, r.prefixKey(keyPrefixCidIndex+campaign.Cid), campaign.Guid, 0)
	}

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save StoredCampaign: %w", err)
	}

	return nil
}

// LoadCampaign retrieves a campaign by guid
func (r *RedisStore) LoadCampaign(guid string) (*persistence.StoredCampaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("campaign store is closed")
	}

	ctx := context.Background()
	key := r.prefixKey(keyPrefixCampaign + guid)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load StoredCampaign: %w", err)
	}

	campaign, err := persistence.UnmarshalCampaign(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal StoredCampaign: %w", err)
	}

	return campaign, nil
}

// FindCampaignByCid retrieves a campaign by content address
func (r *RedisStore) FindCampaignByCid(cid string) (*persistence.StoredCampaign, error) {
	r.mu.RLock()

	if r.closed {
		r.mu.RUnlock()
		return nil, fmt.Errorf("campaign store is closed")
	}

	ctx := context.Background()
	cidKey := r.prefixKey(keyPrefixCidIndex + cid)

	guid, err := r.client.Get(ctx, cidKey).Result()
	r.mu.RUnlock()

	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cid index: %w", err)
	}

	return r.LoadCampaign(guid)
}

// ListCampaigns returns all campaigns sorted by creation time
func (r *RedisStore) ListCampaigns() ([]*persistence.StoredCampaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("campaign store is closed")
	}

	ctx := context.Background()
	indexKey := r.prefixKey(keySetCampaigns)

	// Get all guids from the index set
	guids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign guids: %w", err)
	}

	if len(guids) == 0 {
		return []*persistence.StoredCampaign{}, nil
	}

	// Build keys for all campaigns
	keys := make([]string, len(guids))
	for i, guid := range guids {
		keys[i] = r.prefixKey(keyPrefixCampaign + guid)
	}

	// Fetch all values using MGET
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch StoredCampaigns: %w", err)
	}

	var campaigns []*persistence.StoredCampaign
	for i, val := range values {
		if val == nil {
			// Key was in index but doesn't exist - clean up index
			r.client.SRem(ctx, indexKey, guids[i])
			continue
		}

		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type for StoredCampaign", "key", keys[i])
			continue
		}

		campaign, err := persistence.UnmarshalCampaign([]byte(data))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal StoredCampaign, skipping",
				"key", keys[i], "error", err)
			continue
		}

		campaigns = append(campaigns, campaign)
	}

	// Sort by creation time (ascending)
	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt < campaigns[j].CreatedAt
	})

	return campaigns, nil
}

// GetRecipientsPage returns one page of a campaign's recipients
func (r *RedisStore) GetRecipientsPage(guid string, pageNumber, pageSize int) ([]types.RecipientDto, error) {
	campaign, err := r.LoadCampaign(guid)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, nil // Campaign not found
	}

	return persistence.PageRecipients(campaign, pageNumber, pageSize), nil
}

// DeleteCampaign removes a campaign by guid
func (r *RedisStore) DeleteCampaign(guid string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("campaign store is closed")
	}

	ctx := context.Background()
	key := r.prefixKey(keyPrefixCampaign + guid)
	indexKey := r.prefixKey(keySetCampaigns)

	// Resolve the cid index entry before removing the campaign
	var cidKey string
	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		if campaign, uerr := persistence.UnmarshalCampaign(data); uerr == nil && campaign.Cid != "" {
			cidKey = r.prefixKey(keyPrefixCidIndex + campaign.Cid)
		}
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, indexKey, guid) // Remove from index set
	if cidKey != "" {
		pipe.Del(ctx, cidKey)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// Close shuts down the store
func (r *RedisStore) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil // Already closed, idempotent
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis campaign store closed")
	return nil
}

// HealthCheck verifies the store is operational
func (r *RedisStore) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("campaign store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	schemaKey := r.prefixKey(keySchemaVersion)
	_, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}

	return nil
}
