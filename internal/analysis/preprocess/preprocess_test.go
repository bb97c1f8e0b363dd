package preprocess

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/skalibog/ekgrate/internal/analysis/filter"
	"github.com/skalibog/ekgrate/internal/analysis/normalize"
	"github.com/skalibog/ekgrate/pkg/models"
)

func TestNewPreprocessor_InvalidSpec(t *testing.T) {
	_, err := NewPreprocessor(filter.Spec{Order: 2, LowHz: 60, HighHz: 50}, 250)
	if !errors.Is(err, filter.ErrInvalidFilterSpec) {
		t.Fatalf("expected ErrInvalidFilterSpec, got %v", err)
	}
}

func TestProcess_PropagatesErrorKinds(t *testing.T) {
	p, err := NewDefault(250)
	if err != nil {
		t.Fatalf("NewDefault error: %v", err)
	}

	_, err = p.Process(models.Signal{Samples: []float64{1, 2, 3}, SamplingRate: 250})
	if !errors.Is(err, filter.ErrFilterApplication) {
		t.Fatalf("expected ErrFilterApplication, got %v", err)
	}

	flat := make([]float64, 1000)
	for i := range flat {
		flat[i] = 1.5
	}
	_, err = p.Process(models.Signal{Samples: flat, SamplingRate: 250})
	if !errors.Is(err, normalize.ErrDegenerateSignal) {
		t.Fatalf("expected ErrDegenerateSignal, got %v", err)
	}
	if errors.Is(err, filter.ErrFilterApplication) {
		t.Fatalf("error kinds must stay distinct: %v", err)
	}
}

func TestProcess_Normalized(t *testing.T) {
	p, _ := NewDefault(250)

	in := make([]float64, 2000)
	for i := range in {
		ts := float64(i) / 250
		in[i] = 2 + 0.5*math.Sin(2*math.Pi*0.1*ts) + math.Sin(2*math.Pi*8*ts)
	}
	out, err := p.Process(models.Signal{Samples: in, SamplingRate: 250})
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if out.Len() != len(in) || out.SamplingRate != 250 {
		t.Fatalf("unexpected shape")
	}

	mean, std := stat.PopMeanStdDev(out.Samples, nil)
	if math.Abs(mean) > 1e-9 || math.Abs(std-1) > 1e-9 {
		t.Fatalf("not normalized: mean=%g std=%g", mean, std)
	}
}
