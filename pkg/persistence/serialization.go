package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/sablier-labs/merkle-api/pkg/types"
)

// MarshalCampaign serializes a StoredCampaign to JSON bytes.
func MarshalCampaign(campaign *StoredCampaign) ([]byte, error) {
	if campaign == nil {
		return nil, fmt.Errorf("cannot marshal nil StoredCampaign")
	}

	data, err := json.Marshal(campaign)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal StoredCampaign to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalCampaign deserializes a StoredCampaign from JSON bytes.
func UnmarshalCampaign(data []byte) (*StoredCampaign, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var campaign StoredCampaign
	if err := json.Unmarshal(data, &campaign); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to StoredCampaign: %w", err)
	}

	return &campaign, nil
}

// PageRecipients slices one page out of a campaign's recipient list. Page
// numbers are 1-based; out-of-range pages and non-positive arguments yield an
// empty slice. Shared by all store implementations so pagination behaves
// identically across backends.
func PageRecipients(campaign *StoredCampaign, pageNumber, pageSize int) []types.RecipientDto {
	if campaign == nil || pageNumber < 1 || pageSize < 1 {
		return []types.RecipientDto{}
	}

	start := (pageNumber - 1) * pageSize
	if start >= len(campaign.Recipients) {
		return []types.RecipientDto{}
	}

	end := start + pageSize
	if end > len(campaign.Recipients) {
		end = len(campaign.Recipients)
	}

	return campaign.Recipients[start:end]
}
