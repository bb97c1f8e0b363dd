package storage

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/skalibog/ekgrate/internal/config"
	"github.com/skalibog/ekgrate/pkg/models"
)

const (
	measurementHeartRate = "heart_rate"
	measurementPeaks     = "r_peaks"
)

// InfluxDBStorage реализует интерфейс Storage с использованием InfluxDB
type InfluxDBStorage struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	writeAPI api.WriteAPIBlocking
	org      string
	bucket   string
}

// NewInfluxDBStorage создает новое хранилище InfluxDB
func NewInfluxDBStorage(cfg config.StorageConfig) (*InfluxDBStorage, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Проверка соединения
	health, err := client.Health(context.Background())
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	return &InfluxDBStorage{
		client:   client,
		queryAPI: client.QueryAPI(cfg.Organization),
		writeAPI: client.WriteAPIBlocking(cfg.Organization, cfg.Bucket),
		org:      cfg.Organization,
		bucket:   cfg.Bucket,
	}, nil
}

// Close закрывает соединение с базой данных
func (s *InfluxDBStorage) Close() {
	s.client.Close()
}

// SaveRecord сохраняет итог обработки и положение каждого R-пика
func (s *InfluxDBStorage) SaveRecord(ctx context.Context, record *models.Record) error {
	points := recordPoints(record)
	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("ошибка записи результата %s: %w", record.Source, err)
	}
	return nil
}

// recordPoints формирует точку heart_rate и по точке r_peaks на каждый пик.
// Время пика - время записи плюс смещение пика от начала сигнала.
func recordPoints(record *models.Record) []*write.Point {
	tags := map[string]string{
		"source": record.Source,
		"run_id": record.RunID,
	}

	fields := map[string]interface{}{
		"bpm":     record.Result.BPM,
		"peaks":   len(record.Result.Peaks),
		"samples": record.Samples,
		"rate":    record.Rate,
	}
	if record.RR != nil {
		fields["mean_rr"] = record.RR.MeanRR
		fields["sdnn"] = record.RR.SDNN
		fields["rmssd"] = record.RR.RMSSD
	}
	if record.Spectrum != nil {
		fields["spectral_bpm"] = record.Spectrum.SpectralBPM
	}

	points := make([]*write.Point, 0, len(record.Result.Peaks)+1)
	points = append(points, influxdb2.NewPoint(measurementHeartRate, tags, fields, record.Timestamp))

	for _, p := range record.Result.Peaks {
		offset := time.Duration(float64(p.Index) / record.Rate * float64(time.Second))
		points = append(points, influxdb2.NewPoint(
			measurementPeaks,
			tags,
			map[string]interface{}{
				"index":     p.Index,
				"amplitude": p.Amplitude,
			},
			record.Timestamp.Add(offset),
		))
	}
	return points
}

// GetHistory получает последние результаты обработки для источника, limit <= 0 - все
func (s *InfluxDBStorage) GetHistory(ctx context.Context, source string, limit int) ([]*models.Record, error) {
	// Формируем Flux-запрос
	query := fmt.Sprintf(`
		from(bucket: %q)
			|> range(start: -365d)
			|> filter(fn: (r) => r._measurement == %q)
			|> filter(fn: (r) => r.source == %q)
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
			|> sort(columns: ["_time"], desc: true)
	`, s.bucket, measurementHeartRate, source)
	if limit > 0 {
		query += fmt.Sprintf("|> limit(n: %d)\n", limit)
	}

	// Выполняем запрос
	result, err := s.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории: %w", err)
	}

	// Обрабатываем результаты
	var records []*models.Record
	for result.Next() {
		record := result.Record()

		runID, _ := record.ValueByKey("run_id").(string)
		bpm, _ := record.ValueByKey("bpm").(float64)
		samples, _ := record.ValueByKey("samples").(int64)
		rate, _ := record.ValueByKey("rate").(float64)

		item := &models.Record{
			RunID:     runID,
			Source:    source,
			Timestamp: record.Time(),
			Samples:   int(samples),
			Rate:      rate,
			Result:    models.HeartRateResult{BPM: bpm},
		}

		if meanRR, ok := record.ValueByKey("mean_rr").(float64); ok {
			sdnn, _ := record.ValueByKey("sdnn").(float64)
			rmssd, _ := record.ValueByKey("rmssd").(float64)
			item.RR = &models.RRStats{MeanRR: meanRR, SDNN: sdnn, RMSSD: rmssd}
		}
		if spectral, ok := record.ValueByKey("spectral_bpm").(float64); ok {
			item.Spectrum = &models.Spectrum{SpectralBPM: spectral, DominantHz: spectral / 60}
		}

		records = append(records, item)
	}

	// Проверяем на ошибки при обработке результатов
	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", result.Err())
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	return records, nil
}
