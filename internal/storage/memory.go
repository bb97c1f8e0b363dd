package storage

import (
	"context"
	"sync"

	"github.com/skalibog/ekgrate/pkg/models"
)

// MemoryStorage хранит результаты в памяти процесса
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string][]*models.Record
}

// NewMemoryStorage создает пустое хранилище
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string][]*models.Record),
	}
}

func (s *MemoryStorage) SaveRecord(ctx context.Context, record *models.Record) error {
	stored := *record
	stored.Result.Peaks = append([]models.Peak(nil), record.Result.Peaks...)
	stored.Processed = models.Signal{}

	s.mu.Lock()
	s.records[record.Source] = append(s.records[record.Source], &stored)
	s.mu.Unlock()
	return nil
}

// GetHistory возвращает последние limit записей, новые первыми
func (s *MemoryStorage) GetHistory(ctx context.Context, source string, limit int) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.records[source]
	if len(list) == 0 {
		return nil, ErrNotFound
	}

	var out []*models.Record
	for i := len(list) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (s *MemoryStorage) Close() {}
