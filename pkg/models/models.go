package models

import (
	"time"
)

// Signal представляет одноканальную запись ЭКГ с фиксированной частотой дискретизации
type Signal struct {
	Samples      []float64
	SamplingRate float64 // Гц, > 0
}

// Len возвращает количество отсчетов
func (s Signal) Len() int {
	return len(s.Samples)
}

// Duration возвращает длительность записи
func (s Signal) Duration() time.Duration {
	if s.SamplingRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Samples)) / s.SamplingRate * float64(time.Second))
}

// WithSamples возвращает новый сигнал с той же частотой дискретизации
func (s Signal) WithSamples(samples []float64) Signal {
	return Signal{Samples: samples, SamplingRate: s.SamplingRate}
}

// Peak представляет найденный R-пик
type Peak struct {
	Index     int
	Amplitude float64
}

// HeartRateResult представляет результат оценки ЧСС.
// BPM = 0 означает, что найдено меньше двух пиков.
type HeartRateResult struct {
	BPM   float64
	Peaks []Peak
}

// RRStats статистика RR-интервалов
type RRStats struct {
	MeanRR       float64   // секунды
	MinRR        float64   // секунды
	MaxRR        float64   // секунды
	SDNN         float64   // секунды
	RMSSD        float64   // секунды
	Instant      []float64 // мгновенная ЧСС по каждому интервалу, уд/мин
	InstantTrend []float64 // скользящее среднее мгновенной ЧСС
}

// Spectrum результат спектральной оценки ритма
type Spectrum struct {
	DominantHz  float64
	SpectralBPM float64
	Power       float64 // доля мощности на доминантной частоте в полосе поиска
}

// Record представляет полный результат обработки одной записи
type Record struct {
	RunID     string
	Source    string
	Timestamp time.Time
	Samples   int
	Rate      float64
	Result    HeartRateResult
	RR        *RRStats
	Spectrum  *Spectrum
	Processed Signal // сигнал после фильтрации и нормализации, для визуализации
	Err       error
}

// PeakIndices возвращает индексы пиков
func PeakIndices(peaks []Peak) []int {
	indices := make([]int, len(peaks))
	for i, p := range peaks {
		indices[i] = p.Index
	}
	return indices
}
