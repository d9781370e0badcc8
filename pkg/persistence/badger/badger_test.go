package badger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablier-labs/merkle-api/pkg/logger"
	"github.com/sablier-labs/merkle-api/pkg/persistence"
	"github.com/sablier-labs/merkle-api/pkg/types"
)

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

func TestBadgerStore_SaveAndLoadCampaign(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	campaign := sampleCampaign("11111111-2222-3333-4444-555555555555", 1700000000)

	// Save
	err = bs.SaveCampaign(campaign)
	require.NoError(t, err)

	// Load
	loaded, err := bs.LoadCampaign(campaign.Guid)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	// Verify
	assert.Equal(t, campaign.Guid, loaded.Guid)
	assert.Equal(t, campaign.Root, loaded.Root)
	assert.Equal(t, campaign.Cid, loaded.Cid)
	assert.Equal(t, campaign.TotalAmount, loaded.TotalAmount)
	assert.Equal(t, campaign.Recipients, loaded.Recipients)
}

func TestBadgerStore_LoadCampaign_NotFound(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	loaded, err := bs.LoadCampaign("does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestBadgerStore_SaveCampaign_Nil(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	err = bs.SaveCampaign(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil StoredCampaign")

	err = bs.SaveCampaign(&persistence.StoredCampaign{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty guid")
}

func TestBadgerStore_FindCampaignByCid(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	campaign := sampleCampaign("guid-by-cid", 1700000000)
	err = bs.SaveCampaign(campaign)
	require.NoError(t, err)

	found, err := bs.FindCampaignByCid(campaign.Cid)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, campaign.Guid, found.Guid)

	missing, err := bs.FindCampaignByCid("QmNoSuchCid")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBadgerStore_DeleteCampaign(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	campaign := sampleCampaign("guid-to-delete", 1700000000)
	err = bs.SaveCampaign(campaign)
	require.NoError(t, err)

	// Verify it exists
	loaded, err := bs.LoadCampaign(campaign.Guid)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	// Delete
	err = bs.DeleteCampaign(campaign.Guid)
	require.NoError(t, err)

	// Verify it's gone
	loaded, err = bs.LoadCampaign(campaign.Guid)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestBadgerStore_DeleteCampaign_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	// Delete non-existent campaign (should not error)
	err = bs.DeleteCampaign("never-existed")
	require.NoError(t, err)
}

func TestBadgerStore_ListCampaigns(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	for i := 0; i < 5; i++ {
		campaign := sampleCampaign(fmt.Sprintf("guid-%d", i), int64(1700000000+(4-i)*100))
		err := bs.SaveCampaign(campaign)
		require.NoError(t, err)
	}

	// List
	listed, err := bs.ListCampaigns()
	require.NoError(t, err)
	assert.Len(t, listed, 5)

	// Verify sorted by creation time
	for i := 0; i < len(listed)-1; i++ {
		assert.LessOrEqual(t, listed[i].CreatedAt, listed[i+1].CreatedAt)
	}
}

func TestBadgerStore_ListCampaigns_Empty(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	listed, err := bs.ListCampaigns()
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestBadgerStore_GetRecipientsPage(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	campaign := sampleCampaign("paged-guid", 1700000000)
	err = bs.SaveCampaign(campaign)
	require.NoError(t, err)

	// First page of size 1
	page, err := bs.GetRecipientsPage(campaign.Guid, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, campaign.Recipients[0], page[0])

	// Second page of size 1
	page, err = bs.GetRecipientsPage(campaign.Guid, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, campaign.Recipients[1], page[0])

	// Page beyond range is empty
	page, err = bs.GetRecipientsPage(campaign.Guid, 3, 1)
	require.NoError(t, err)
	assert.Empty(t, page)

	// Unknown campaign returns nil page
	page, err = bs.GetRecipientsPage("missing", 1, 10)
	require.NoError(t, err)
	assert.Nil(t, page)
}

func TestBadgerStore_Close(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)

	err = bs.Close()
	require.NoError(t, err)

	// Operations after close should fail
	err = bs.SaveCampaign(sampleCampaign("after-close", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")

	_, err = bs.LoadCampaign("after-close")
	require.Error(t, err)

	_, err = bs.ListCampaigns()
	require.Error(t, err)
}

func TestBadgerStore_Close_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)

	err = bs.Close()
	require.NoError(t, err)

	// Second close should also succeed
	err = bs.Close()
	require.NoError(t, err)
}

func TestBadgerStore_HealthCheck(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	err = bs.HealthCheck()
	require.NoError(t, err)

	// Health check after close should fail
	err = bs.Close()
	require.NoError(t, err)
	err = bs.HealthCheck()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestBadgerStore_ThreadSafety(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	var wg sync.WaitGroup
	numGoroutines := 10
	numOperations := 50

	// Concurrent writes
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				campaign := sampleCampaign(fmt.Sprintf("guid-%d-%d", id, j), int64(id*1000+j))
				err := bs.SaveCampaign(campaign)
				assert.NoError(t, err)
			}
		}(i)
	}

	// Concurrent reads
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				_, err := bs.LoadCampaign(fmt.Sprintf("guid-%d-%d", id, j))
				assert.NoError(t, err)
			}
		}(i)
	}

	wg.Wait()
}

func TestBadgerStore_Persistence_AcrossRestarts(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	// First instance - save data
	bs1, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)

	campaign := sampleCampaign("survives-restart", 1700000000)
	err = bs1.SaveCampaign(campaign)
	require.NoError(t, err)

	// Close first instance
	err = bs1.Close()
	require.NoError(t, err)

	// Second instance - verify data persisted
	bs2, err := NewBadgerStore(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = bs2.Close() }()

	loaded, err := bs2.LoadCampaign(campaign.Guid)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, campaign.Root, loaded.Root)
	assert.Equal(t, campaign.Recipients, loaded.Recipients)
}
