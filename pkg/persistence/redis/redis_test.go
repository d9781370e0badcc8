package redis

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablier-labs/merkle-api/pkg/logger"
	"github.com/sablier-labs/merkle-api/pkg/persistence"
	"github.com/sablier-labs/merkle-api/pkg/types"
)

// getTestRedisAddress returns the Redis address for testing.
// Uses REDIS_TEST_ADDRESS env var if set, otherwise defaults to localhost:6379.
func getTestRedisAddress() string {
	if addr := os.Getenv("REDIS_TEST_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// requireRedis skips the test if Redis is not available
func requireRedis(t *testing.T) *RedisStore {
	t.Helper()

	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	cfg := &RedisConfig{
		Address: getTestRedisAddress(),
		DB:      15, // Use DB 15 for tests to avoid conflicts
	}

	rs, err := NewRedisStore(cfg, testLogger)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", cfg.Address, err)
		return nil
	}

	return rs
}

func sampleCampaign(guid string, createdAt int64) *persistence.StoredCampaign {
	return &persistence.StoredCampaign{
		Guid:               guid,
		CreatedAt:          createdAt,
		Root:               "e60ac87de5924e8fb43a6ef12ab5b1617d4a88b392ecc35796efdd9fa4b0006f",
		Cid:                "Qm" + guid,
		TotalAmount:        "300000000",
		NumberOfRecipients: 2,
		Decimals:           9,
		AddressKind:        "solana",
		MerkleTree:         `{"root":"e60ac87de5924e8fb43a6ef12ab5b1617d4a88b392ecc35796efdd9fa4b0006f","tree":[["aa","bb"],["cc"]]}`,
		Recipients: []types.RecipientDto{
			{Address: "8miSWoL8uhTZjA51YjJs6ddbi1oZYtNKwwgdpG2FmXp8", Amount: "100000000"},
			{Address: "DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy", Amount: "200000000"},
		},
	}
}

func TestRedisStore_SaveAndLoadCampaign(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	campaign := sampleCampaign("redis-save-load", 1700000000)

	// Save
	err := rs.SaveCampaign(campaign)
	require.NoError(t, err)

	// Load
	loaded, err := rs.LoadCampaign(campaign.Guid)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	// Verify
	assert.Equal(t, campaign.Guid, loaded.Guid)
	assert.Equal(t, campaign.Root, loaded.Root)
	assert.Equal(t, campaign.Recipients, loaded.Recipients)

	// Cleanup
	_ = rs.DeleteCampaign(campaign.Guid)
}

func TestRedisStore_LoadCampaign_NotFound(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	loaded, err := rs.LoadCampaign("redis-does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_SaveCampaign_Nil(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	err := rs.SaveCampaign(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil StoredCampaign")
}

func TestRedisStore_FindCampaignByCid(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	campaign := sampleCampaign("redis-by-cid", 1700000000)
	err := rs.SaveCampaign(campaign)
	require.NoError(t, err)

	found, err := rs.FindCampaignByCid(campaign.Cid)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, campaign.Guid, found.Guid)

	missing, err := rs.FindCampaignByCid("QmRedisNoSuchCid")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Cleanup
	_ = rs.DeleteCampaign(campaign.Guid)
}

func TestRedisStore_DeleteCampaign(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	campaign := sampleCampaign("redis-to-delete", 1700000000)
	err := rs.SaveCampaign(campaign)
	require.NoError(t, err)

	// Delete
	err = rs.DeleteCampaign(campaign.Guid)
	require.NoError(t, err)

	// Verify it's gone, including the cid index
	loaded, err := rs.LoadCampaign(campaign.Guid)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	found, err := rs.FindCampaignByCid(campaign.Cid)
	require.NoError(t, err)
	assert.Nil(t, found)

	// Deleting again should not error
	err = rs.DeleteCampaign(campaign.Guid)
	require.NoError(t, err)
}

func TestRedisStore_ListCampaigns(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	guids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		guid := fmt.Sprintf("redis-list-%d", i)
		guids = append(guids, guid)
		campaign := sampleCampaign(guid, int64(1700000000+(2-i)*100))
		err := rs.SaveCampaign(campaign)
		require.NoError(t, err)
	}
	defer func() {
		for _, guid := range guids {
			_ = rs.DeleteCampaign(guid)
		}
	}()

	listed, err := rs.ListCampaigns()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(listed), 3)

	// Verify sorted by creation time
	for i := 0; i < len(listed)-1; i++ {
		assert.LessOrEqual(t, listed[i].CreatedAt, listed[i+1].CreatedAt)
	}
}

func TestRedisStore_GetRecipientsPage(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	campaign := sampleCampaign("redis-paged", 1700000000)
	err := rs.SaveCampaign(campaign)
	require.NoError(t, err)
	defer func() { _ = rs.DeleteCampaign(campaign.Guid) }()

	page, err := rs.GetRecipientsPage(campaign.Guid, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, campaign.Recipients[0], page[0])

	page, err = rs.GetRecipientsPage(campaign.Guid, 3, 1)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, err = rs.GetRecipientsPage("redis-missing", 1, 10)
	require.NoError(t, err)
	assert.Nil(t, page)
}

func TestRedisStore_Close(t *testing.T) {
	rs := requireRedis(t)

	err := rs.Close()
	require.NoError(t, err)

	// Operations after close should fail
	err = rs.SaveCampaign(sampleCampaign("redis-after-close", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")

	// Second close should also succeed
	err = rs.Close()
	require.NoError(t, err)
}

func TestRedisStore_HealthCheck(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	err := rs.HealthCheck()
	require.NoError(t, err)
}

func TestRedisStore_Config_Validation(t *testing.T) {
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	_, err := NewRedisStore(nil, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil")

	_, err = NewRedisStore(&RedisConfig{}, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}
