package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ErrInvalidConfig ошибка валидации конфигурации
var ErrInvalidConfig = errors.New("некорректная конфигурация")

// Config представляет полную конфигурацию приложения
type Config struct {
	SamplingRate float64         `yaml:"sampling_rate"`
	Filter       FilterConfig    `yaml:"filter"`
	Detection    DetectionConfig `yaml:"detection"`
	Analysis     AnalysisConfig  `yaml:"analysis"`
	Input        InputConfig     `yaml:"input"`
	Storage      StorageConfig   `yaml:"storage"`
	Logger       LoggerConfig    `yaml:"logger"`
	UI           UIConfig        `yaml:"ui"`
}

// FilterConfig настройки полосового фильтра Баттерворта
type FilterConfig struct {
	Order        int     `yaml:"order"`
	LowCutoffHz  float64 `yaml:"low_cutoff_hz"`
	HighCutoffHz float64 `yaml:"high_cutoff_hz"`
}

// DetectionConfig настройки поиска R-пиков
type DetectionConfig struct {
	MinHeight      float64 `yaml:"min_height"`       // в единицах СКО нормализованного сигнала
	MinDistanceSec float64 `yaml:"min_distance_sec"` // рефрактерный период, 0.5 с = не более 120 уд/мин
	IncludeEdges   bool    `yaml:"include_edges"`
}

// AnalysisConfig настройки конвейера обработки
type AnalysisConfig struct {
	DegenerateAsZero bool `yaml:"degenerate_as_zero"`
	Workers          int  `yaml:"workers"`
	Spectrum         bool `yaml:"spectrum"`
	TrendWindow      int  `yaml:"trend_window"`
}

// InputConfig настройки чтения входных файлов
type InputConfig struct {
	Column     int    `yaml:"column"`
	SkipHeader bool   `yaml:"skip_header"`
	Sheet      string `yaml:"sheet"`
}

// StorageConfig настройки хранения результатов
type StorageConfig struct {
	Type         string `yaml:"type"` // none, memory, influxdb
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`
	Bucket       string `yaml:"bucket"`
}

// LoggerConfig настройки логирования
type LoggerConfig struct {
	Level    string `yaml:"level"`
	File     string `yaml:"file"`
	JSONFile string `yaml:"json_file"`
	Console  bool   `yaml:"console"`
}

// UIConfig настройки терминального интерфейса
type UIConfig struct {
	Enabled bool `yaml:"enabled"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
}

// Default возвращает конфигурацию с эталонными параметрами
func Default() *Config {
	return &Config{
		SamplingRate: 250,
		Filter: FilterConfig{
			Order:        2,
			LowCutoffHz:  0.5,
			HighCutoffHz: 50.0,
		},
		Detection: DetectionConfig{
			MinHeight:      0.25,
			MinDistanceSec: 0.5,
			IncludeEdges:   true,
		},
		Analysis: AnalysisConfig{
			Workers:     4,
			Spectrum:    true,
			TrendWindow: 5,
		},
		Storage: StorageConfig{
			Type: "none",
		},
		Logger: LoggerConfig{
			Level:    "info",
			File:     "ekgrate.log",
			JSONFile: "ekgrate.json.log",
		},
		UI: UIConfig{
			Width:  100,
			Height: 12,
		},
	}
}

// Load загружает конфигурацию из файла поверх значений по умолчанию
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	return Parse(data)
}

// Parse разбирает YAML поверх значений по умолчанию и проверяет результат
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate проверяет значения конфигурации.
// Соотношение частот среза и частоты Найквиста проверяется при расчете фильтра.
func (c *Config) Validate() error {
	if c.SamplingRate <= 0 {
		return fmt.Errorf("%w: sampling_rate должна быть > 0, получено %v", ErrInvalidConfig, c.SamplingRate)
	}
	if c.Filter.Order < 1 {
		return fmt.Errorf("%w: filter.order должен быть >= 1, получено %d", ErrInvalidConfig, c.Filter.Order)
	}
	if c.Detection.MinDistanceSec < 0 {
		return fmt.Errorf("%w: detection.min_distance_sec не может быть отрицательным", ErrInvalidConfig)
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("%w: analysis.workers должен быть >= 1, получено %d", ErrInvalidConfig, c.Analysis.Workers)
	}
	if c.Analysis.TrendWindow < 1 {
		return fmt.Errorf("%w: analysis.trend_window должен быть >= 1", ErrInvalidConfig)
	}
	if c.Input.Column < 0 {
		return fmt.Errorf("%w: input.column не может быть отрицательным", ErrInvalidConfig)
	}

	switch c.Storage.Type {
	case "", "none", "memory":
	case "influxdb":
		if c.Storage.URL == "" || c.Storage.Bucket == "" || c.Storage.Organization == "" {
			return fmt.Errorf("%w: для influxdb нужны url, organization и bucket", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: неизвестный тип хранилища %q", ErrInvalidConfig, c.Storage.Type)
	}

	return nil
}
