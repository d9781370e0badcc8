package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sablier-labs/merkle-api/pkg/persistence"
	"github.com/sablier-labs/merkle-api/pkg/types"
)

// MemoryStore is an in-memory implementation of ICampaignStore.
// This implementation is intended for TESTING ONLY.
//
// All data is stored in memory and will be lost when the process exits.
// Thread-safe using sync.RWMutex for concurrent access.
// Deep copies data to prevent external mutation.
type MemoryStore struct {
	mu sync.RWMutex

	// Campaign storage: guid -> StoredCampaign
	campaigns map[string]*persistence.StoredCampaign

	// Closed flag
	closed bool
}

// NewMemoryStore creates a new in-memory campaign store.
// Prints a loud warning since this should only be used for testing.
func NewMemoryStore() *MemoryStore {
	fmt.Println("⚠️  WARNING: Using in-memory campaign store - ALL DATA WILL BE LOST ON RESTART")
	fmt.Println("⚠️  This should ONLY be used for testing. Set MERKLE_API_STORE=badger for production")

	return &MemoryStore{
		campaigns: make(map[string]*persistence.StoredCampaign),
	}
}

// SaveCampaign persists a campaign.
func (m *MemoryStore) SaveCampaign(campaign *persistence.StoredCampaign) error {
	if campaign == nil {
		return fmt.Errorf("cannot save nil StoredCampaign")
	}
	if campaign.Guid == "" {
		return fmt.Errorf("cannot save campaign with empty guid")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("campaign store is closed")
	}

	// Deep copy to prevent external mutation
	m.campaigns[campaign.Guid] = deepCopyCampaign(campaign)

	return nil
}

// LoadCampaign retrieves a campaign by guid.
func (m *MemoryStore) LoadCampaign(guid string) (*persistence.StoredCampaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("campaign store is closed")
	}

	campaign, exists := m.campaigns[guid]
	if !exists {
		return nil, nil // Not found is not an error
	}

	// Deep copy to prevent external mutation
	return deepCopyCampaign(campaign), nil
}

// FindCampaignByCid retrieves a campaign by content address.
func (m *MemoryStore) FindCampaignByCid(cid string) (*persistence.StoredCampaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("campaign store is closed")
	}

	for _, campaign := range m.campaigns {
		if campaign.Cid == cid {
			return deepCopyCampaign(campaign), nil
		}
	}

	return nil, nil // Not found is not an error
}

// ListCampaigns returns all campaigns sorted by creation time.
func (m *MemoryStore) ListCampaigns() ([]*persistence.StoredCampaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("campaign store is closed")
	}

	// Build list with deep copies
	result := make([]*persistence.StoredCampaign, 0, len(m.campaigns))
	for _, campaign := range m.campaigns {
		result = append(result, deepCopyCampaign(campaign))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt < result[j].CreatedAt
	})

	return result, nil
}

// GetRecipientsPage returns one page of a campaign's recipients.
func (m *MemoryStore) GetRecipientsPage(guid string, pageNumber, pageSize int) ([]types.RecipientDto, error) {
	campaign, err := m.LoadCampaign(guid)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, nil // Campaign not found
	}

	return persistence.PageRecipients(campaign, pageNumber, pageSize), nil
}

// DeleteCampaign removes a campaign by guid.
func (m *MemoryStore) DeleteCampaign(guid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("campaign store is closed")
	}

	delete(m.campaigns, guid)
	return nil
}

// Close shuts down the store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the store is operational.
func (m *MemoryStore) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("campaign store is closed")
	}

	return nil
}

func deepCopyCampaign(c *persistence.StoredCampaign) *persistence.StoredCampaign {
	if c == nil {
		return nil
	}

	recipients := make([]types.RecipientDto, len(c.Recipients))
	copy(recipients, c.Recipients)

	return &persistence.StoredCampaign{
		Guid:               c.Guid,
		CreatedAt:          c.CreatedAt,
		Root:               c.Root,
		Cid:                c.Cid,
		TotalAmount:        c.TotalAmount,
		NumberOfRecipients: c.NumberOfRecipients,
		Decimals:           c.Decimals,
		AddressKind:        c.AddressKind,
		MerkleTree:         c.MerkleTree,
		Recipients:         recipients,
	}
}
