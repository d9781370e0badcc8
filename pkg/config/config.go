package config

import (
	"fmt"
)

// Environment variable names for Merkle API configuration
const (
	EnvMerkleAPIPort            = "MERKLE_API_PORT"
	EnvMerkleAPIBearerToken     = "MERKLE_API_BEARER_TOKEN"
	EnvMerkleAPIStore           = "MERKLE_API_STORE"
	EnvMerkleAPIBadgerPath      = "MERKLE_API_BADGER_PATH"
	EnvMerkleAPIRedisAddress    = "MERKLE_API_REDIS_ADDRESS"
	EnvMerkleAPIRedisPassword   = "MERKLE_API_REDIS_PASSWORD"
	EnvMerkleAPIRedisDB         = "MERKLE_API_REDIS_DB"
	EnvPinataAPIServer          = "PINATA_API_SERVER"
	EnvPinataAPIKey             = "PINATA_API_KEY"
	EnvPinataSecretAPIKey       = "PINATA_SECRET_API_KEY"
	EnvPinataAccessToken        = "PINATA_ACCESS_TOKEN"
	EnvIPFSGateway              = "IPFS_GATEWAY"
	EnvMerkleAPIVerbose         = "MERKLE_API_VERBOSE"
)

// AddressKind selects the recipient address format of a campaign. Only two
// formats exist, so this is a closed set rather than open-ended dispatch.
type AddressKind string

const (
	AddressKindUnknown AddressKind = "unknown"
	AddressKindEVM     AddressKind = "evm"
	AddressKindSolana  AddressKind = "solana"
)

func (k AddressKind) String() string {
	return string(k)
}

// ParseAddressKind converts a textual kind into an AddressKind.
func ParseAddressKind(s string) (AddressKind, error) {
	switch AddressKind(s) {
	case AddressKindEVM:
		return AddressKindEVM, nil
	case AddressKindSolana:
		return AddressKindSolana, nil
	default:
		return AddressKindUnknown, fmt.Errorf("unsupported address kind: %s", s)
	}
}

// StoreBackend selects the campaign persistence implementation.
type StoreBackend string

const (
	StoreBackendBadger StoreBackend = "badger"
	StoreBackendRedis  StoreBackend = "redis"
	StoreBackendMemory StoreBackend = "memory"
)

// ServerConfig represents the complete configuration for a merkle-api server
type ServerConfig struct {
	Port int `json:"port"`

	// BearerToken guards the eligibility endpoint
	BearerToken string `json:"bearer_token"`

	// Campaign storage
	Store         StoreBackend `json:"store"`
	BadgerPath    string       `json:"badger_path"`
	RedisAddress  string       `json:"redis_address"`
	RedisPassword string       `json:"redis_password"`
	RedisDB       int          `json:"redis_db"`

	// Pinata / IPFS publication
	PinataAPIServer    string `json:"pinata_api_server"`
	PinataAPIKey       string `json:"pinata_api_key"`
	PinataSecretAPIKey string `json:"pinata_secret_api_key"`
	PinataAccessToken  string `json:"pinata_access_token"`
	IPFSGateway        string `json:"ipfs_gateway"`

	// Operational settings
	Verbose bool `json:"verbose"`
}

// Validate validates the merkle-api server configuration
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1-65535, got %d", c.Port)
	}

	switch c.Store {
	case StoreBackendBadger:
		if c.BadgerPath == "" {
			return fmt.Errorf("badger path cannot be empty when the badger store is selected")
		}
	case StoreBackendRedis:
		if c.RedisAddress == "" {
			return fmt.Errorf("redis address cannot be empty when the redis store is selected")
		}
	case StoreBackendMemory:
		// nothing to validate
	default:
		return fmt.Errorf("unsupported store backend: %s (supported: badger, redis, memory)", c.Store)
	}

	if c.PinataAPIServer == "" {
		return fmt.Errorf("pinata API server cannot be empty")
	}
	if c.PinataAPIKey == "" || c.PinataSecretAPIKey == "" {
		return fmt.Errorf("pinata API credentials cannot be empty")
	}
	if c.IPFSGateway == "" {
		return fmt.Errorf("IPFS gateway cannot be empty")
	}
	if c.BearerToken == "" {
		return fmt.Errorf("bearer token cannot be empty")
	}

	return nil
}
