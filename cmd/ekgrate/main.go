package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/skalibog/ekgrate/internal/analysis/aggregator"
	"github.com/skalibog/ekgrate/internal/config"
	"github.com/skalibog/ekgrate/internal/loader"
	"github.com/skalibog/ekgrate/internal/storage"
	"github.com/skalibog/ekgrate/internal/ui"
	"github.com/skalibog/ekgrate/pkg/logger"
	"github.com/skalibog/ekgrate/pkg/models"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run возвращает код завершения: 0 - все записи обработаны, 1 - есть ошибки, 2 - ошибка запуска
func run(args []string, stdout, stderr io.Writer) int {
	// Обработка флагов командной строки
	flags := flag.NewFlagSet("ekgrate", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "путь к файлу конфигурации (по умолчанию встроенные значения)")
	rate := flags.Float64("rate", 0, "частота дискретизации, Гц (переопределяет sampling_rate)")
	withUI := flags.Bool("ui", false, "открыть терминальный интерфейс после обработки")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Использование: ekgrate [-config cfg.yaml] [-rate 250] [-ui] файл...")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	// Загружаем конфигурацию
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Ошибка загрузки конфигурации: %v\n", err)
			return 2
		}
		cfg = loaded
	}
	if *rate != 0 {
		cfg.SamplingRate = *rate
	}
	if *withUI {
		cfg.UI.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Ошибка конфигурации: %v\n", err)
		return 2
	}

	// Консольный лог мешает полноэкранному интерфейсу
	if err := logger.Init(logger.Options{
		Level:    cfg.Logger.Level,
		File:     cfg.Logger.File,
		JSONFile: cfg.Logger.JSONFile,
		Console:  cfg.Logger.Console && !cfg.UI.Enabled,
	}); err != nil {
		fmt.Fprintf(stderr, "Ошибка инициализации логгера: %v\n", err)
		return 2
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем хранилище
	store, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища", zap.Error(err))
		return 2
	}
	if store != nil {
		defer store.Close()
	}

	analyzer, err := aggregator.NewAnalyzer(cfg, store)
	if err != nil {
		logger.Error("Ошибка расчета фильтра", zap.Error(err))
		fmt.Fprintf(stderr, "Ошибка расчета фильтра: %v\n", err)
		return 2
	}

	records := process(ctx, analyzer, loader.NewLoader(cfg.Input, cfg.SamplingRate), flags.Args())

	failed := 0
	for _, r := range records {
		if r.Err != nil {
			failed++
		}
		fmt.Fprintln(stdout, summary(r))
	}

	if cfg.UI.Enabled {
		if err := ui.NewTermUI(cfg.UI, cfg.Logger.JSONFile, records).Start(); err != nil {
			logger.Error("Ошибка пользовательского интерфейса", zap.Error(err))
		}
	}

	if failed > 0 {
		logger.Warn("Не все записи обработаны", zap.Int("failed", failed), zap.Int("total", len(records)))
		return 1
	}
	return 0
}

// process загружает файлы и обрабатывает их одним пакетом.
// Порядок результатов совпадает с порядком файлов.
func process(ctx context.Context, analyzer *aggregator.Analyzer, l *loader.Loader, paths []string) []*models.Record {
	records := make([]*models.Record, len(paths))

	var (
		inputs []aggregator.Input
		slots  []int
	)
	for i, path := range paths {
		signal, err := l.LoadFile(path)
		if err != nil {
			logger.Warn("Ошибка загрузки записи", zap.String("path", path), zap.Error(err))
			records[i] = &models.Record{Source: path, Err: err}
			continue
		}
		inputs = append(inputs, aggregator.Input{Source: path, Signal: signal})
		slots = append(slots, i)
	}

	for j, r := range analyzer.AnalyzeBatch(ctx, inputs) {
		records[slots[j]] = r
	}
	return records
}

func summary(r *models.Record) string {
	if r.Err != nil {
		return fmt.Sprintf("%s: ошибка: %v", r.Source, r.Err)
	}

	line := fmt.Sprintf("%s: %.1f уд/мин, пиков: %d", r.Source, r.Result.BPM, len(r.Result.Peaks))
	if r.Spectrum != nil {
		line += fmt.Sprintf(", спектр: %.1f уд/мин", r.Spectrum.SpectralBPM)
	}
	return line
}
