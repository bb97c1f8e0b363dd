package normalize

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/skalibog/ekgrate/pkg/models"
)

func TestZScore_MeanAndStd(t *testing.T) {
	inputs := [][]float64{
		{1, 2, 3, 4, 5},
		{-3.5, 10, 0.001, 42, 7, 7, 7},
		{1e-3, 2e-3, -1e-3},
	}
	for _, in := range inputs {
		out, err := ZScore(models.Signal{Samples: in, SamplingRate: 100})
		if err != nil {
			t.Fatalf("ZScore error: %v", err)
		}
		mean, std := stat.PopMeanStdDev(out.Samples, nil)
		if math.Abs(mean) > 1e-12 {
			t.Errorf("mean = %g, want 0", mean)
		}
		if math.Abs(std-1) > 1e-12 {
			t.Errorf("std = %g, want 1", std)
		}
		if out.SamplingRate != 100 || out.Len() != len(in) {
			t.Errorf("unexpected shape: %d @ %v", out.Len(), out.SamplingRate)
		}
	}
}

func TestZScore_KnownValues(t *testing.T) {
	// mean 2, population std sqrt(2/3)
	out, err := ZScore(models.Signal{Samples: []float64{1, 2, 3}, SamplingRate: 1})
	if err != nil {
		t.Fatalf("ZScore error: %v", err)
	}
	want := []float64{-math.Sqrt(1.5), 0, math.Sqrt(1.5)}
	for i := range want {
		if math.Abs(out.Samples[i]-want[i]) > 1e-12 {
			t.Fatalf("out[%d] = %v, want %v", i, out.Samples[i], want[i])
		}
	}
}

func TestZScore_DoesNotMutateInput(t *testing.T) {
	in := []float64{5, 1, 9}
	if _, err := ZScore(models.Signal{Samples: in, SamplingRate: 1}); err != nil {
		t.Fatalf("ZScore error: %v", err)
	}
	if in[0] != 5 || in[1] != 1 || in[2] != 9 {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestZScore_FlatLine(t *testing.T) {
	flat := make([]float64, 1000)
	for i := range flat {
		flat[i] = 0.7
	}
	_, err := ZScore(models.Signal{Samples: flat, SamplingRate: 250})
	if !errors.Is(err, ErrDegenerateSignal) {
		t.Fatalf("expected ErrDegenerateSignal, got %v", err)
	}

	_, err = ZScore(models.Signal{Samples: make([]float64, 10), SamplingRate: 250})
	if !errors.Is(err, ErrDegenerateSignal) {
		t.Fatalf("expected ErrDegenerateSignal for zeros, got %v", err)
	}

	_, err = ZScore(models.Signal{SamplingRate: 250})
	if !errors.Is(err, ErrDegenerateSignal) {
		t.Fatalf("expected ErrDegenerateSignal for empty signal, got %v", err)
	}
}

func TestZScore_RoundingNoiseIsDegenerate(t *testing.T) {
	in := make([]float64, 100)
	for i := range in {
		in[i] = 1e-16 * float64(i%3)
	}
	// Средний модуль ~1e-16, СКО ~1e-16: не вырожден относительно своего масштаба
	if _, err := ZScore(models.Signal{Samples: in, SamplingRate: 1}); err != nil {
		t.Fatalf("small but varying signal must normalize: %v", err)
	}

	in = make([]float64, 100)
	for i := range in {
		in[i] = 5
	}
	in[3] = 5 + 1e-15
	if _, err := ZScore(models.Signal{Samples: in, SamplingRate: 1}); !errors.Is(err, ErrDegenerateSignal) {
		t.Fatalf("expected ErrDegenerateSignal, got %v", err)
	}
}
