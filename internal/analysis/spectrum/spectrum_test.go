package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/skalibog/ekgrate/pkg/models"
)

func TestDominant_Sinusoid(t *testing.T) {
	const rate = 250.0
	x := make([]float64, 2500)
	for i := range x {
		ts := float64(i) / rate
		// Основной тон 1.2 Гц, помеха вне полосы 8 Гц
		x[i] = math.Sin(2*math.Pi*1.2*ts) + 0.3*math.Sin(2*math.Pi*2.5*ts) + 2*math.Sin(2*math.Pi*8*ts)
	}

	s, err := Dominant(models.Signal{Samples: x, SamplingRate: rate})
	if err != nil {
		t.Fatalf("Dominant error: %v", err)
	}
	if math.Abs(s.DominantHz-1.2) > 0.1+1e-9 {
		t.Fatalf("expected 1.2 Hz, got %v", s.DominantHz)
	}
	if math.Abs(s.SpectralBPM-72) > 6+1e-9 {
		t.Fatalf("expected ~72 bpm, got %v", s.SpectralBPM)
	}
	if s.Power <= 0.5 || s.Power > 1 {
		t.Fatalf("unexpected power fraction %v", s.Power)
	}
}

func TestDominant_TooShort(t *testing.T) {
	_, err := Dominant(models.Signal{Samples: make([]float64, 100), SamplingRate: 250})
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	_, err = Dominant(models.Signal{SamplingRate: 250})
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort for empty signal, got %v", err)
	}
}
