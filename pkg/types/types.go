package types

// RecipientDto is one recipient entry as published and served to clients.
// Amount is the base-unit integer amount rendered as a decimal string.
type RecipientDto struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// CampaignDocument is the persistent campaign representation pinned to IPFS
// and retrieved by content address. MerkleTree holds the snapshot text
// produced by the tree's Dump, opaque to the publication service.
type CampaignDocument struct {
	TotalAmount        string         `json:"total_amount"`
	NumberOfRecipients int            `json:"number_of_recipients"`
	MerkleTree         string         `json:"merkle_tree"`
	Root               string         `json:"root"`
	Recipients         []RecipientDto `json:"recipients"`
}

// ValidationError is a single CSV validation failure. Row is 1-based and
// accounts for the header row.
type ValidationError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// UploadSuccessResponse is returned after a campaign is created and pinned
type UploadSuccessResponse struct {
	Status     string `json:"status"`
	Total      string `json:"total"`
	Recipients string `json:"recipients"`
	Root       string `json:"root"`
	Cid        string `json:"cid"`
}

// ValidationErrorResponse reports all row-level CSV failures at once
type ValidationErrorResponse struct {
	Status string            `json:"status"`
	Errors []ValidationError `json:"errors"`
}

// GeneralErrorResponse carries a single human-readable failure message
type GeneralErrorResponse struct {
	Message string `json:"message"`
}

// EligibilityResponse is the proof bundle returned for an eligible recipient.
// Together with the published root it is self-contained: the caller can
// verify inclusion without any other tree state.
type EligibilityResponse struct {
	Index   int      `json:"index"`
	Proof   []string `json:"proof"`
	Address string   `json:"address"`
	Amount  string   `json:"amount"`
}

// RecipientPageDto is one page of a stored campaign's recipient list
type RecipientPageDto struct {
	PageNumber int            `json:"page_number"`
	PageSize   int            `json:"page_size"`
	Recipients []RecipientDto `json:"recipients"`
}

// RecipientsSuccessResponse wraps a recipient page
type RecipientsSuccessResponse struct {
	Status string           `json:"status"`
	Page   RecipientPageDto `json:"page"`
}

// HealthResponse is the liveness probe payload
type HealthResponse struct {
	Status string `json:"status"`
}
