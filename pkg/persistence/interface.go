package persistence

import (
	"github.com/sablier-labs/merkle-api/pkg/config"
	"github.com/sablier-labs/merkle-api/pkg/types"
)

// StoredCampaign is the locally persisted record of a published campaign.
// MerkleTree holds the tree snapshot text so eligibility lookups can reload
// the tree without a gateway round trip.
type StoredCampaign struct {
	Guid               string               `json:"guid"`
	CreatedAt          int64                `json:"created_at"`
	Root               string               `json:"root"`
	Cid                string               `json:"cid"`
	TotalAmount        string               `json:"total_amount"`
	NumberOfRecipients int                  `json:"number_of_recipients"`
	Decimals           int                  `json:"decimals"`
	AddressKind        config.AddressKind   `json:"address_kind"`
	MerkleTree         string               `json:"merkle_tree"`
	Recipients         []types.RecipientDto `json:"recipients"`
}

// ICampaignStore defines the interface for persisting campaigns across
// restarts. All implementations must be thread-safe as API handlers are
// concurrent.
type ICampaignStore interface {
	// SaveCampaign persists a campaign indexed by its guid.
	// Overwrites any existing campaign with the same guid (idempotent).
	SaveCampaign(campaign *StoredCampaign) error

	// LoadCampaign retrieves a campaign by guid.
	// Returns nil if the campaign doesn't exist, error only on storage failure.
	LoadCampaign(guid string) (*StoredCampaign, error)

	// FindCampaignByCid retrieves a campaign by its content address.
	// Returns nil if no campaign has the cid, error only on storage failure.
	FindCampaignByCid(cid string) (*StoredCampaign, error)

	// ListCampaigns returns all campaigns sorted by creation time (ascending).
	// Returns empty slice if no campaigns exist, error only on storage failure.
	ListCampaigns() ([]*StoredCampaign, error)

	// GetRecipientsPage returns one page of a campaign's recipient list.
	// Page numbers are 1-based. Returns nil if the campaign doesn't exist and
	// an empty slice for pages past the end.
	GetRecipientsPage(guid string, pageNumber, pageSize int) ([]types.RecipientDto, error)

	// DeleteCampaign removes a campaign by guid.
	// Idempotent - returns nil if the campaign doesn't exist.
	DeleteCampaign(guid string) error

	// Close cleanly shuts down the store.
	// Idempotent - safe to call multiple times.
	Close() error

	// HealthCheck verifies the store is operational.
	// Should be called during startup to fail fast.
	HealthCheck() error
}
