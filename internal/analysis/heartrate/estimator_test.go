package heartrate

import (
	"math"
	"testing"

	"github.com/skalibog/ekgrate/pkg/models"
)

func peaksAt(idx ...int) []models.Peak {
	out := make([]models.Peak, len(idx))
	for i, v := range idx {
		out[i] = models.Peak{Index: v, Amplitude: 1}
	}
	return out
}

func TestBPM_EvenlySpaced(t *testing.T) {
	peaks := peaksAt(0, 250, 500, 750, 1000, 1250, 1500, 1750, 2000, 2250)
	res := Estimate(peaks, 250)
	if math.Abs(res.BPM-60) > 1e-9 {
		t.Fatalf("expected 60 bpm, got %v", res.BPM)
	}
	if len(res.Peaks) != 10 {
		t.Fatalf("expected 10 peaks, got %d", len(res.Peaks))
	}
}

func TestBPM_FewerThanTwoPeaks(t *testing.T) {
	if got := BPM(nil, 250); got != 0 {
		t.Fatalf("expected 0 for no peaks, got %v", got)
	}
	if got := BPM(peaksAt(100), 250); got != 0 {
		t.Fatalf("expected 0 for single peak, got %v", got)
	}
	if got := BPM(peaksAt(100, 350), 250); got == 0 {
		t.Fatalf("expected non-zero for two peaks")
	}
}

func TestBPM_ArithmeticMeanOfIntervals(t *testing.T) {
	// Интервалы 0.8 с и 1.2 с: среднее 1.0 с -> 60 уд/мин.
	// Среднее мгновенных ЧСС (75 и 50) дало бы 62.5.
	got := BPM(peaksAt(0, 200, 500), 250)
	if math.Abs(got-60) > 1e-9 {
		t.Fatalf("expected 60 bpm, got %v", got)
	}
}

func TestBPM_SensitiveToMissedPeak(t *testing.T) {
	full := BPM(peaksAt(0, 250, 500, 750, 1000), 250)
	missed := BPM(peaksAt(0, 250, 750, 1000), 250)
	if math.Abs(full-60) > 1e-9 {
		t.Fatalf("expected 60 bpm, got %v", full)
	}
	// Пропущенный пик занижает оценку, ложный - завышает
	if math.Abs(missed-45) > 1e-9 {
		t.Fatalf("expected 45 bpm with missed peak, got %v", missed)
	}
	spurious := BPM(peaksAt(0, 250, 400, 500, 750, 1000), 250)
	if math.Abs(spurious-75) > 1e-9 {
		t.Fatalf("expected 75 bpm with spurious peak, got %v", spurious)
	}
}

func TestStats(t *testing.T) {
	if Stats(peaksAt(10), 250, 3) != nil {
		t.Fatalf("expected nil stats for one peak")
	}

	// RR: 1.0, 0.8, 1.2, 1.0 с
	s := Stats(peaksAt(0, 250, 450, 750, 1000), 250, 2)
	if s == nil {
		t.Fatalf("expected stats")
	}
	if math.Abs(s.MeanRR-1.0) > 1e-12 || s.MinRR != 0.8 || s.MaxRR != 1.2 {
		t.Fatalf("unexpected RR summary: %+v", s)
	}

	// Выборочное СКО: sqrt((0 + 0.04 + 0.04 + 0) / 3)
	if math.Abs(s.SDNN-math.Sqrt(0.08/3)) > 1e-12 {
		t.Fatalf("unexpected SDNN %v", s.SDNN)
	}
	// Разности: -0.2, 0.4, -0.2
	if math.Abs(s.RMSSD-math.Sqrt(0.24/3)) > 1e-12 {
		t.Fatalf("unexpected RMSSD %v", s.RMSSD)
	}

	if len(s.Instant) != 4 || math.Abs(s.Instant[1]-75) > 1e-9 {
		t.Fatalf("unexpected instant bpm %v", s.Instant)
	}
	if len(s.InstantTrend) != 3 {
		t.Fatalf("unexpected trend length %d", len(s.InstantTrend))
	}
	if math.Abs(s.InstantTrend[0]-(60+75)/2.0) > 1e-9 {
		t.Fatalf("unexpected trend %v", s.InstantTrend)
	}
}

func TestStats_WindowClamped(t *testing.T) {
	s := Stats(peaksAt(0, 250, 500), 250, 10)
	if len(s.InstantTrend) != 1 || math.Abs(s.InstantTrend[0]-60) > 1e-9 {
		t.Fatalf("unexpected trend %v", s.InstantTrend)
	}
	if math.Abs(s.SDNN) > 1e-12 {
		t.Fatalf("unexpected SDNN %v", s.SDNN)
	}
}
