package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"chatbot/config"
	"chatbot/models"
)

const DefaultRecentLimit = 20

// ExchangeStore records the exchanges served by the backend.
type ExchangeStore interface {
	Save(ctx context.Context, ex models.Exchange) error
	// Recent returns up to limit exchanges, newest first.
	Recent(ctx context.Context, limit int) ([]models.Exchange, error)
	Close() error
}

// OpenStore opens the backend named by cfg.Backend.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *zap.SugaredLogger) (ExchangeStore, error) {
	switch cfg.Backend {
	case config.StoreMemory, "":
		return NewMemoryStore(), nil
	case config.StoreDynamoDB:
		return NewDynamoStore(ctx, cfg, logger)
	case config.StorePostgres:
		return NewPostgresStore(ctx, cfg.PostgresURI)
	case config.StoreBolt:
		return NewBoltStore(cfg.BoltPath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// MemoryStore keeps exchanges in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	exchanges []models.Exchange
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, ex models.Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchanges = append(m.exchanges, ex)
	return nil
}

func (m *MemoryStore) Recent(_ context.Context, limit int) ([]models.Exchange, error) {
	m.mu.RLock()
	out := make([]models.Exchange, 0, len(m.exchanges))
	for i := len(m.exchanges) - 1; i >= 0; i-- {
		out = append(out, m.exchanges[i])
	}
	m.mu.RUnlock()

	return newestFirst(out, limit), nil
}

func (m *MemoryStore) Close() error { return nil }

func newestFirst(exchanges []models.Exchange, limit int) []models.Exchange {
	sort.SliceStable(exchanges, func(i, j int) bool {
		return exchanges[i].Timestamp.After(exchanges[j].Timestamp)
	})
	if limit > 0 && len(exchanges) > limit {
		exchanges = exchanges[:limit]
	}
	return exchanges
}
