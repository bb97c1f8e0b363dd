// Package loader читает записи ЭКГ из файлов и проверяет данные перед обработкой.
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/skalibog/ekgrate/internal/config"
	"github.com/skalibog/ekgrate/pkg/logger"
	"github.com/skalibog/ekgrate/pkg/models"
)

var (
	// ErrInvalidInput данные не являются конечной одномерной последовательностью чисел
	ErrInvalidInput = errors.New("некорректные входные данные")
	// ErrUnsupportedFormat расширение файла не поддерживается
	ErrUnsupportedFormat = errors.New("неподдерживаемый формат")
)

// Format формат входных данных
type Format int

const (
	FormatCSV Format = iota
	FormatXLSX
)

// Loader читает сигнал с фиксированной частотой дискретизации
type Loader struct {
	config config.InputConfig
	rate   float64
}

// NewLoader создает загрузчик для заданной частоты дискретизации
func NewLoader(cfg config.InputConfig, rate float64) *Loader {
	return &Loader{
		config: cfg,
		rate:   rate,
	}
}

// DetectFormat определяет формат по расширению. Суффикс .xz снимается,
// второй результат сообщает, что файл сжат.
func DetectFormat(path string) (Format, bool, error) {
	name := strings.ToLower(filepath.Base(path))
	compressed := false
	if strings.HasSuffix(name, ".xz") {
		compressed = true
		name = strings.TrimSuffix(name, ".xz")
	}

	switch filepath.Ext(name) {
	case ".csv", ".txt", "":
		return FormatCSV, compressed, nil
	case ".xlsx":
		return FormatXLSX, compressed, nil
	default:
		return 0, compressed, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadFile читает сигнал из файла
func (l *Loader) LoadFile(path string) (models.Signal, error) {
	format, compressed, err := DetectFormat(path)
	if err != nil {
		return models.Signal{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return models.Signal{}, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		xzr, err := xz.NewReader(f)
		if err != nil {
			return models.Signal{}, fmt.Errorf("%w: ошибка распаковки %s: %v", ErrInvalidInput, path, err)
		}
		r = xzr
	}

	signal, err := l.Read(r, format)
	if err != nil {
		return models.Signal{}, fmt.Errorf("%s: %w", path, err)
	}

	logger.Info("Загружена запись",
		zap.String("path", path),
		zap.Int("samples", signal.Len()),
		zap.Duration("duration", signal.Duration()))
	return signal, nil
}

// Read читает сигнал из потока
func (l *Loader) Read(r io.Reader, format Format) (models.Signal, error) {
	if !(l.rate > 0) || math.IsInf(l.rate, 0) {
		return models.Signal{}, fmt.Errorf("%w: частота дискретизации %v", ErrInvalidInput, l.rate)
	}

	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatXLSX:
		rows, err = readXLSX(r, l.config.Sheet)
	default:
		return models.Signal{}, fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return models.Signal{}, err
	}

	samples, err := l.column(rows)
	if err != nil {
		return models.Signal{}, err
	}
	return models.Signal{Samples: samples, SamplingRate: l.rate}, nil
}

// column извлекает настроенный столбец и проверяет значения
func (l *Loader) column(rows [][]string) ([]float64, error) {
	if l.config.SkipHeader && len(rows) > 0 {
		rows = rows[1:]
	}

	samples := make([]float64, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if l.config.Column >= len(row) {
			return nil, fmt.Errorf("%w: строка %d: нет столбца %d", ErrInvalidInput, i+1, l.config.Column)
		}

		cell := strings.TrimSpace(row[l.config.Column])
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: строка %d: %q не число", ErrInvalidInput, i+1, cell)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: строка %d: недопустимое значение %v", ErrInvalidInput, i+1, v)
		}
		samples = append(samples, v)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: нет отсчетов", ErrInvalidInput)
	}
	return samples, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка разбора CSV: %v", ErrInvalidInput, err)
	}
	return rows, nil
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	// excelize читает архив целиком
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения XLSX: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка открытия XLSX: %v", ErrInvalidInput, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: в книге нет листов", ErrInvalidInput)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: лист %q: %v", ErrInvalidInput, sheet, err)
	}
	return rows, nil
}
