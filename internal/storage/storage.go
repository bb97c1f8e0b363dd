package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/skalibog/ekgrate/internal/config"
	"github.com/skalibog/ekgrate/pkg/models"
)

// ErrNotFound результаты для источника не найдены
var ErrNotFound = errors.New("результаты не найдены")

// Storage интерфейс для хранения результатов обработки
type Storage interface {
	SaveRecord(ctx context.Context, record *models.Record) error
	GetHistory(ctx context.Context, source string, limit int) ([]*models.Record, error)
	Close()
}

// New создает хранилище по конфигурации. Для типа "none" возвращает nil без ошибки.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryStorage(), nil
	case "influxdb":
		store, err := NewInfluxDBStorage(cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища %q", cfg.Type)
	}
}
