package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skalibog/ekgrate/internal/analysis/filter"
	"github.com/skalibog/ekgrate/internal/analysis/heartrate"
	"github.com/skalibog/ekgrate/internal/analysis/normalize"
	"github.com/skalibog/ekgrate/internal/analysis/peaks"
	"github.com/skalibog/ekgrate/internal/analysis/preprocess"
	"github.com/skalibog/ekgrate/internal/analysis/spectrum"
	"github.com/skalibog/ekgrate/internal/config"
	"github.com/skalibog/ekgrate/internal/storage"
	"github.com/skalibog/ekgrate/pkg/logger"
	"github.com/skalibog/ekgrate/pkg/models"
)

// Input одна запись для пакетной обработки
type Input struct {
	Source string
	Signal models.Signal
}

// Analyzer объединяет этапы обработки: фильтрация и нормализация, поиск R-пиков,
// оценка ЧСС, статистика RR и спектральная оценка
type Analyzer struct {
	config   *config.Config
	storage  storage.Storage
	detector *peaks.Detector

	// Фильтры по частоте дискретизации: коэффициенты неизменяемы и общие для всех записей
	mu            sync.Mutex
	preprocessors map[float64]*preprocess.Preprocessor
}

// NewAnalyzer создает анализатор и сразу рассчитывает фильтр для частоты из конфигурации,
// чтобы ошибка параметров фильтра проявилась до обработки данных.
// storage может быть nil - тогда результаты не сохраняются.
func NewAnalyzer(cfg *config.Config, store storage.Storage) (*Analyzer, error) {
	a := &Analyzer{
		config:        cfg,
		storage:       store,
		detector:      peaks.NewDetector(cfg.Detection),
		preprocessors: make(map[float64]*preprocess.Preprocessor),
	}

	if _, err := a.preprocessor(cfg.SamplingRate); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Analyzer) filterSpec() filter.Spec {
	return filter.Spec{
		Order:  a.config.Filter.Order,
		LowHz:  a.config.Filter.LowCutoffHz,
		HighHz: a.config.Filter.HighCutoffHz,
	}
}

func (a *Analyzer) preprocessor(rate float64) (*preprocess.Preprocessor, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.preprocessors[rate]; ok {
		return p, nil
	}

	p, err := preprocess.NewPreprocessor(a.filterSpec(), rate)
	if err != nil {
		return nil, err
	}
	a.preprocessors[rate] = p
	return p, nil
}

// Analyze обрабатывает одну запись. При ошибке любого этапа запись не сохраняется
// и частичный результат не возвращается.
func (a *Analyzer) Analyze(ctx context.Context, runID, source string, signal models.Signal) (*models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := a.process(runID, source, signal)
	if err != nil {
		return nil, err
	}

	logger.Debug("AGGREGATOR: Обработка записи завершена",
		zap.String("source", source),
		zap.Float64("bpm", record.Result.BPM),
		zap.Int("peaks", len(record.Result.Peaks)))

	if a.storage != nil {
		if err := a.storage.SaveRecord(ctx, record); err != nil {
			logger.Warn("Предупреждение: не удалось сохранить результат", zap.String("source", source), zap.Error(err))
		}
	}

	return record, nil
}

func (a *Analyzer) process(runID, source string, signal models.Signal) (*models.Record, error) {
	record := &models.Record{
		RunID:     runID,
		Source:    source,
		Timestamp: time.Now(),
		Samples:   signal.Len(),
		Rate:      signal.SamplingRate,
	}

	pre, err := a.preprocessor(signal.SamplingRate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	processed, err := pre.Process(signal)
	if err != nil {
		if a.config.Analysis.DegenerateAsZero && errors.Is(err, normalize.ErrDegenerateSignal) {
			logger.Warn("Вырожденный сигнал, ЧСС принята равной 0", zap.String("source", source), zap.Error(err))
			record.Result = models.HeartRateResult{Peaks: []models.Peak{}}
			return record, nil
		}
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	record.Processed = processed

	detected := a.detector.Detect(processed)
	record.Result = heartrate.Estimate(detected, processed.SamplingRate)
	record.RR = heartrate.Stats(detected, processed.SamplingRate, a.config.Analysis.TrendWindow)

	if a.config.Analysis.Spectrum {
		spec, err := spectrum.Dominant(processed)
		if err != nil {
			logger.Debug("Спектральная оценка недоступна", zap.String("source", source), zap.Error(err))
		} else {
			record.Spectrum = spec
		}
	}

	return record, nil
}

// AnalyzeBatch обрабатывает записи параллельно, не более analysis.workers одновременно.
// Записи независимы: ошибка одной сохраняется в Record.Err и не прерывает остальные.
// Порядок результатов совпадает с порядком inputs.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, inputs []Input) []*models.Record {
	runID := uuid.NewString()
	records := make([]*models.Record, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Analysis.Workers)

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			record, err := a.Analyze(gctx, runID, in.Source, in.Signal)
			if err != nil {
				logger.Warn("Ошибка обработки записи", zap.String("source", in.Source), zap.Error(err))
				record = &models.Record{
					RunID:     runID,
					Source:    in.Source,
					Timestamp: time.Now(),
					Samples:   in.Signal.Len(),
					Rate:      in.Signal.SamplingRate,
					Err:       err,
				}
			}
			records[i] = record
			return nil
		})
	}

	_ = g.Wait()

	logger.Info("Пакетная обработка завершена", zap.String("run_id", runID), zap.Int("records", len(records)))
	return records
}

// GetHistory возвращает сохраненные результаты для источника
func (a *Analyzer) GetHistory(ctx context.Context, source string, limit int) ([]*models.Record, error) {
	if a.storage == nil {
		return nil, storage.ErrNotFound
	}
	return a.storage.GetHistory(ctx, source, limit)
}
