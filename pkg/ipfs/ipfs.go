package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sablier-labs/merkle-api/pkg/types"
)

// PinataSuccess is the success response after an upload request to Pinata
type PinataSuccess struct {
	IpfsHash string `json:"IpfsHash"`
}

// ClientConfig holds the configuration for the Pinata/IPFS client
type ClientConfig struct {
	// APIServer is the Pinata pinning API base URL
	APIServer string
	// APIKey and SecretAPIKey authenticate pinning requests
	APIKey       string
	SecretAPIKey string
	// Gateway is the IPFS gateway base URL for downloads
	Gateway string
	// AccessToken is the Pinata gateway token appended to download requests
	AccessToken string
	// Timeout bounds each HTTP request; defaults to 30s
	Timeout time.Duration
}

// Client publishes campaign documents to IPFS through Pinata and retrieves
// them by content address. The document is opaque at this layer.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Pinata/IPFS client
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIServer == "" {
		return nil, fmt.Errorf("pinata API server is required")
	}
	if cfg.Gateway == "" {
		return nil, fmt.Errorf("IPFS gateway is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Upload pins a campaign document as a JSON file and returns its content
// address (CID).
func (c *Client) Upload(ctx context.Context, doc *types.CampaignDocument) (string, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal campaign document")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "data.json")
	if err != nil {
		return "", errors.Wrap(err, "failed to create form file")
	}
	if _, err := part.Write(payload); err != nil {
		return "", errors.Wrap(err, "failed to write form file")
	}
	if err := form.Close(); err != nil {
		return "", errors.Wrap(err, "failed to finalize form")
	}

	endpoint := c.cfg.APIServer + "/pinning/pinFileToIPFS"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", errors.Wrap(err, "failed to build pin request")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("pinata_api_key", c.cfg.APIKey)
	req.Header.Set("pinata_secret_api_key", c.cfg.SecretAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "pin request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read pin response")
	}

	success, err := TryDeserializePinataResponse(raw)
	if err != nil {
		c.logger.Sugar().Errorw("Pinata upload failed",
			"status_code", resp.StatusCode,
			"body", string(raw))
		return "", errors.Wrapf(err, "pinata upload failed with status %d", resp.StatusCode)
	}

	c.logger.Sugar().Infow("Campaign pinned to IPFS", "cid", success.IpfsHash)
	return success.IpfsHash, nil
}

// Download retrieves a campaign document by content address through the
// gateway.
func (c *Client) Download(ctx context.Context, cid string) (*types.CampaignDocument, error) {
	url := fmt.Sprintf("%s/%s?pinataGatewayToken=%s", c.cfg.Gateway, cid, c.cfg.AccessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build download request for cid %s", cid)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "download failed for cid %s", cid)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("gateway returned status %d for cid %s", resp.StatusCode, cid)
	}

	var doc types.CampaignDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "failed to decode campaign document for cid %s", cid)
	}

	return &doc, nil
}

// TryDeserializePinataResponse parses a Pinata API response body. Anything
// without an IpfsHash field is treated as a failure payload.
func TryDeserializePinataResponse(body []byte) (*PinataSuccess, error) {
	var success PinataSuccess
	if err := json.Unmarshal(body, &success); err != nil {
		return nil, errors.Wrap(err, "failed to parse pinata response")
	}
	if success.IpfsHash == "" {
		return nil, errors.New("pinata response contains no IpfsHash")
	}
	return &success, nil
}
