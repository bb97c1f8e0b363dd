// Package spectrum оценивает основной ритм сигнала по спектру мощности.
// Оценка справочная и не заменяет расчет по RR-интервалам.
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"

	"github.com/skalibog/ekgrate/pkg/models"
)

// Полоса поиска: 30–180 уд/мин
const (
	MinHz = 0.5
	MaxHz = 3.0
)

// ErrTooShort запись слишком коротка для разрешения полосы поиска
var ErrTooShort = errors.New("недостаточно данных для спектральной оценки")

// Dominant возвращает частоту максимума спектра мощности в полосе MinHz..MaxHz
func Dominant(signal models.Signal) (*models.Spectrum, error) {
	n := signal.Len()
	if n == 0 || signal.SamplingRate <= 0 {
		return nil, fmt.Errorf("%w: %d отсчетов", ErrTooShort, n)
	}

	resolution := signal.SamplingRate / float64(n)
	lo := int(math.Ceil(MinHz * float64(n) / signal.SamplingRate))
	hi := int(math.Floor(MaxHz * float64(n) / signal.SamplingRate))
	if hi > n/2 {
		hi = n / 2
	}
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		return nil, fmt.Errorf("%w: разрешение %.3f Гц", ErrTooShort, resolution)
	}

	bins := fft.FFTReal(signal.Samples)

	power := make([]float64, hi-lo+1)
	for k := lo; k <= hi; k++ {
		m := cmplx.Abs(bins[k])
		power[k-lo] = m * m
	}

	total := floats.Sum(power)
	if total == 0 {
		return nil, fmt.Errorf("%w: нулевая мощность в полосе", ErrTooShort)
	}

	idx := floats.MaxIdx(power)
	hz := float64(lo+idx) * resolution

	return &models.Spectrum{
		DominantHz:  hz,
		SpectralBPM: hz * 60,
		Power:       power[idx] / total,
	}, nil
}
