package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"github.com/sablier-labs/merkle-api/pkg/persistence"
	"github.com/sablier-labs/merkle-api/pkg/types"
)

// Key prefixes for namespacing
const (
	keyPrefixCampaign    = "campaign:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

// BadgerStore is a production-ready campaign store using Badger.
// Provides durable, disk-based storage with ACID guarantees.
type BadgerStore struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// NewBadgerStore creates a new Badger-backed campaign store.
// The database is opened at the specified path with SyncWrites enabled for
// durability. A background goroutine is started for garbage collection.
func NewBadgerStore(dataPath string, logger *zap.Logger) (*BadgerStore, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bs := &BadgerStore{
		db:     db,
		logger: logger,
	}

	if err := bs.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bs.gcCancel = cancel
	bs.gcWg.Add(1)
	go bs.runGC(ctx)

	logger.Sugar().Infow("Badger campaign store initialized", "path", absPath)

	return bs, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerStore) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}

		return nil
	})
}

// runGC runs periodic garbage collection in the background
func (b *BadgerStore) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// SaveCampaign persists a campaign
func (b *BadgerStore) SaveCampaign(campaign *persistence.StoredCampaign) error {
	if campaign == nil {
		return fmt.Errorf("cannot save nil StoredCampaign")
	}
	if campaign.Guid == "" {
		return fmt.Errorf("cannot save campaign with empty guid")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("campaign store is closed")
	}

	data, err := persistence.MarshalCampaign(campaign)
	if err != nil {
		return fmt.Errorf("failed to marshal StoredCampaign: %w", err)
	}

	key := keyPrefixCampaign + campaign.Guid
	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// LoadCampaign retrieves a campaign by guid
func (b *BadgerStore) LoadCampaign(guid string) (*persistence.StoredCampaign, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("campaign store is closed")
	}

	key := keyPrefixCampaign + guid

	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badgerdb.ErrKeyNotFound {
			return nil // Not found is not an error
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...) // Copy value
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to load StoredCampaign: %w", err)
	}

	if data == nil {
		return nil, nil // Not found
	}

	campaign, err := persistence.UnmarshalCampaign(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal StoredCampaign: %w", err)
	}

	return campaign, nil
}

// FindCampaignByCid retrieves a campaign by content address
func (b *BadgerStore) FindCampaignByCid(cid string) (*persistence.StoredCampaign, error) {
	campaigns, err := b.ListCampaigns()
	if err != nil {
		return nil, err
	}

	for _, campaign := range campaigns {
		if campaign.Cid == cid {
			return campaign, nil
		}
	}

	return nil, nil
}

// ListCampaigns returns all campaigns sorted by creation time
func (b *BadgerStore) ListCampaigns() ([]*persistence.StoredCampaign, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("campaign store is closed")
	}

	var campaigns []*persistence.StoredCampaign

	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefixCampaign)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			var data []byte
			err := item.Value(func(val []byte) error {
				data = append([]byte{}, val...) // Copy value
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to read value: %w", err)
			}

			campaign, err := persistence.UnmarshalCampaign(data)
			if err != nil {
				b.logger.Sugar().Warnw("Failed to unmarshal StoredCampaign, skipping",
					"key", string(item.Key()), "error", err)
				continue
			}

			campaigns = append(campaigns, campaign)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt < campaigns[j].CreatedAt
	})

	return campaigns, nil
}

// GetRecipientsPage returns one page of a campaign's recipients
func (b *BadgerStore) GetRecipientsPage(guid string, pageNumber, pageSize int) ([]types.RecipientDto, error) {
	campaign, err := b.LoadCampaign(guid)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, nil // Campaign not found
	}

	return persistence.PageRecipients(campaign, pageNumber, pageSize), nil
}

// DeleteCampaign removes a campaign by guid
func (b *BadgerStore) DeleteCampaign(guid string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("campaign store is closed")
	}

	key := keyPrefixCampaign + guid

	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close shuts down the store
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil // Already closed, idempotent
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger campaign store closed")
	return nil
}

// HealthCheck verifies the store is operational
func (b *BadgerStore) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("campaign store is closed")
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
