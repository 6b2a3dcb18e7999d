package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"panel-backend/internal/models"
	"panel-backend/internal/store/types"
)

type Store struct {
	clients map[int]*models.Client
	configs map[string]*models.Config
	logs    []*models.LogEntry
	lastID  int32 // 用于生成自增ID
	mu      sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		clients: make(map[int]*models.Client),
		configs: make(map[string]*models.Config),
	}
}

func (s *Store) nextClientID() int {
	return int(atomic.AddInt32(&s.lastID, 1))
}

// Client 操作
func (s *Store) CreateClient(ctx context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client.ID == 0 {
		client.ID = s.nextClientID()
	}

	copied := *client
	s.clients[client.ID] = &copied
	return nil
}

func (s *Store) GetClient(ctx context.Context, id int) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if client, exists := s.clients[id]; exists {
		copied := *client
		return &copied, nil
	}
	return nil, types.ErrNotFound
}

func (s *Store) ListClients(ctx context.Context) ([]*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]*models.Client, 0, len(s.clients))
	for _, client := range s.clients {
		copied := *client
		clients = append(clients, &copied)
	}
	sort.Slice(clients, func(i, j int) bool {
		return strings.ToLower(clients[i].Name) < strings.ToLower(clients[j].Name)
	})
	return clients, nil
}

func (s *Store) UpdateClient(ctx context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[client.ID]; !exists {
		return types.ErrNotFound
	}
	copied := *client
	s.clients[client.ID] = &copied
	return nil
}

func (s *Store) DeleteClient(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
	return nil
}

// Config 操作
func (s *Store) CreateConfig(ctx context.Context, config *models.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *config
	s.configs[config.ID] = &copied
	return nil
}

func (s *Store) GetConfig(ctx context.Context, id string) (*models.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if config, exists := s.configs[id]; exists {
		copied := *config
		return &copied, nil
	}
	return nil, types.ErrNotFound
}

func (s *Store) ListConfigs(ctx context.Context) ([]*models.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	configs := make([]*models.Config, 0, len(s.configs))
	for _, config := range s.configs {
		copied := *config
		configs = append(configs, &copied)
	}
	sortConfigs(configs)
	return configs, nil
}

func (s *Store) ListConfigsByClient(ctx context.Context, clientID int) ([]*models.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configs []*models.Config
	for _, config := range s.configs {
		if config.ClientID != nil && *config.ClientID == clientID {
			copied := *config
			configs = append(configs, &copied)
		}
	}
	sortConfigs(configs)
	return configs, nil
}

func (s *Store) UpdateConfig(ctx context.Context, config *models.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.configs[config.ID]; !exists {
		return types.ErrNotFound
	}
	copied := *config
	s.configs[config.ID] = &copied
	return nil
}

func (s *Store) DeleteConfig(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.configs, id)
	return nil
}

func (s *Store) DeleteConfigsByClient(ctx context.Context, clientID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, config := range s.configs {
		if config.ClientID != nil && *config.ClientID == clientID {
			delete(s.configs, id)
		}
	}
	return nil
}

// Audit log 操作
func (s *Store) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *entry
	copied.ID = uint(len(s.logs) + 1)
	s.logs = append(s.logs, &copied)
	return nil
}

func (s *Store) ListLogs(ctx context.Context, filter types.LogFilter) ([]*models.LogEntry, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.LogEntry
	for _, entry := range s.logs {
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(entry.Message), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Category != "" && filter.Category != models.LogFilterAll &&
			string(entry.Category) != filter.Category {
			continue
		}
		if filter.Level != "" && filter.Level != models.LogFilterAll &&
			string(entry.Level) != filter.Level {
			continue
		}
		copied := *entry
		matched = append(matched, &copied)
	}

	// 最新的在前
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	if filter.Limit > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.Limit
		}
		if offset >= len(matched) {
			return nil, total, nil
		}
		end := offset + filter.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[offset:end]
	}

	return matched, total, nil
}

func (s *Store) Close() error {
	return nil
}

func sortConfigs(configs []*models.Config) {
	sort.Slice(configs, func(i, j int) bool {
		if configs[i].CreatedAt.Equal(configs[j].CreatedAt) {
			return configs[i].ID < configs[j].ID
		}
		return configs[i].CreatedAt.After(configs[j].CreatedAt)
	})
}
