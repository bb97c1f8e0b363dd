// Package peaks ищет R-пики в нормализованном сигнале ЭКГ.
package peaks

import (
	"math"
	"slices"

	"github.com/skalibog/ekgrate/internal/config"
	"github.com/skalibog/ekgrate/pkg/models"
)

// Options параметры поиска пиков
type Options struct {
	// MinHeight минимальное значение пика. Для нормализованного сигнала - в единицах СКО.
	MinHeight float64
	// MinDistance минимальное расстояние между соседними пиками в отсчетах, не меньше 1
	MinDistance int
	// IncludeEdges разрешает пик в первом или последнем отсчете,
	// если он строго больше своего единственного соседа
	IncludeEdges bool
}

// Detector ищет пики с параметрами из конфигурации
type Detector struct {
	config config.DetectionConfig
}

// NewDetector создает детектор R-пиков.
// Рефрактерный период 0.5 с ограничивает измеримую ЧСС значением 120 уд/мин.
func NewDetector(cfg config.DetectionConfig) *Detector {
	return &Detector{
		config: cfg,
	}
}

// Options переводит настройки детектора в отсчеты для заданной частоты дискретизации
func (d *Detector) Options(rate float64) Options {
	return Options{
		MinHeight:    d.config.MinHeight,
		MinDistance:  DistanceSamples(d.config.MinDistanceSec, rate),
		IncludeEdges: d.config.IncludeEdges,
	}
}

// Detect возвращает пики сигнала в порядке возрастания индекса
func (d *Detector) Detect(signal models.Signal) []models.Peak {
	return Find(signal.Samples, d.Options(signal.SamplingRate))
}

// DistanceSamples переводит интервал в секундах в число отсчетов с округлением вверх
func DistanceSamples(seconds, rate float64) int {
	n := int(math.Ceil(seconds * rate))
	if n < 1 {
		return 1
	}
	return n
}

// Find ищет локальные максимумы не ниже MinHeight и прореживает их по расстоянию:
// из двух пиков ближе MinDistance остается больший, при равенстве - более ранний.
// Пустой результат не является ошибкой.
func Find(x []float64, opts Options) []models.Peak {
	candidates := localMaxima(x, opts.IncludeEdges)

	kept := candidates[:0]
	for _, idx := range candidates {
		if x[idx] >= opts.MinHeight {
			kept = append(kept, idx)
		}
	}
	candidates = kept

	if opts.MinDistance > 1 && len(candidates) > 1 {
		candidates = suppress(x, candidates, opts.MinDistance)
	}

	peaks := make([]models.Peak, len(candidates))
	for i, idx := range candidates {
		peaks[i] = models.Peak{Index: idx, Amplitude: x[idx]}
	}
	return peaks
}

// localMaxima возвращает индексы отсчетов, строго больших обоих соседей.
// Для плато возвращается его середина (левая из двух средних при четной ширине).
func localMaxima(x []float64, includeEdges bool) []int {
	n := len(x)
	var out []int

	switch {
	case n == 0:
		return out
	case n == 1:
		if includeEdges {
			out = append(out, 0)
		}
		return out
	}

	if includeEdges && x[0] > x[1] {
		out = append(out, 0)
	}

	last := n - 1
	for i := 1; i < last; i++ {
		if !(x[i-1] < x[i]) {
			continue
		}

		// Пропускаем плато
		ahead := i + 1
		for ahead < last && x[ahead] == x[i] {
			ahead++
		}

		if x[ahead] < x[i] {
			right := ahead - 1
			out = append(out, (i+right)/2)
			i = ahead
		}
	}

	if includeEdges && x[last] > x[last-1] {
		out = append(out, last)
	}
	return out
}

// suppress удаляет кандидатов ближе distance к более высокому пику.
// Кандидаты обходятся по убыванию амплитуды, при равенстве - по возрастанию индекса.
func suppress(x []float64, candidates []int, distance int) []int {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		va, vb := x[candidates[a]], x[candidates[b]]
		switch {
		case va > vb:
			return -1
		case va < vb:
			return 1
		}
		return candidates[a] - candidates[b]
	})

	keep := make([]bool, len(candidates))
	for i := range keep {
		keep[i] = true
	}

	for _, i := range order {
		if !keep[i] {
			continue
		}

		for j := i - 1; j >= 0 && candidates[i]-candidates[j] < distance; j-- {
			keep[j] = false
		}
		for j := i + 1; j < len(candidates) && candidates[j]-candidates[i] < distance; j++ {
			keep[j] = false
		}
	}

	out := make([]int, 0, len(candidates))
	for i, idx := range candidates {
		if keep[i] {
			out = append(out, idx)
		}
	}
	return out
}
