// Package heartrate оценивает частоту сердечных сокращений по положению R-пиков.
package heartrate

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/skalibog/ekgrate/pkg/models"
)

// Intervals возвращает RR-интервалы в секундах
func Intervals(peaks []models.Peak, rate float64) []float64 {
	if len(peaks) < 2 {
		return nil
	}

	rr := make([]float64, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		rr[i-1] = float64(peaks[i].Index-peaks[i-1].Index) / rate
	}
	return rr
}

// BPM возвращает 60 / среднее арифметическое RR-интервалов.
// Меньше двух пиков - 0, это не ошибка.
//
// Среднее, а не медиана: один пропущенный или ложный пик заметно смещает оценку.
func BPM(peaks []models.Peak, rate float64) float64 {
	rr := Intervals(peaks, rate)
	if len(rr) == 0 {
		return 0
	}

	mean := stat.Mean(rr, nil)
	if mean <= 0 {
		return 0
	}
	return 60 / mean
}

// Estimate возвращает ЧСС вместе с пиками, по которым она рассчитана
func Estimate(peaks []models.Peak, rate float64) models.HeartRateResult {
	return models.HeartRateResult{
		BPM:   BPM(peaks, rate),
		Peaks: peaks,
	}
}

// Stats рассчитывает статистику RR-интервалов. Для меньше чем двух пиков возвращает nil.
// InstantTrend - скользящее среднее мгновенной ЧСС по окну trendWindow интервалов,
// его длина len(Instant) - window + 1.
func Stats(peaks []models.Peak, rate float64, trendWindow int) *models.RRStats {
	rr := Intervals(peaks, rate)
	if len(rr) == 0 {
		return nil
	}

	stats := &models.RRStats{
		MeanRR: stat.Mean(rr, nil),
		MinRR:  floats.Min(rr),
		MaxRR:  floats.Max(rr),
	}

	if len(rr) > 1 {
		stats.SDNN = stat.StdDev(rr, nil)

		diffs := make([]float64, len(rr)-1)
		for i := 1; i < len(rr); i++ {
			diffs[i-1] = rr[i] - rr[i-1]
		}
		stats.RMSSD = math.Sqrt(floats.Dot(diffs, diffs) / float64(len(diffs)))
	}

	stats.Instant = make([]float64, len(rr))
	for i, v := range rr {
		stats.Instant[i] = 60 / v
	}

	window := trendWindow
	if window < 1 {
		window = 1
	}
	if window > len(stats.Instant) {
		window = len(stats.Instant)
	}
	sma := talib.Sma(stats.Instant, window)
	stats.InstantTrend = sma[window-1:]

	return stats
}
