// Package normalize приводит сигнал к нулевому среднему и единичному СКО.
package normalize

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/skalibog/ekgrate/pkg/models"
)

// ErrDegenerateSignal сигнал с нулевой дисперсией
var ErrDegenerateSignal = errors.New("вырожденный сигнал")

// relativeEpsilon СКО не выше этой доли от среднего модуля считается нулевым:
// постоянный сигнал после фильтрации содержит только ошибки округления.
const relativeEpsilon = 1e-12

// ZScore возвращает (x - mean) / std с генеральным СКО.
// Исходный сигнал не изменяется.
func ZScore(signal models.Signal) (models.Signal, error) {
	mean, std, err := moments(signal)
	if err != nil {
		return models.Signal{}, err
	}

	out := make([]float64, signal.Len())
	for i, v := range signal.Samples {
		out[i] = (v - mean) / std
	}
	return signal.WithSamples(out), nil
}

// Check возвращает ErrDegenerateSignal, если сигнал нельзя нормализовать
func Check(signal models.Signal) error {
	_, _, err := moments(signal)
	return err
}

func moments(signal models.Signal) (mean, std float64, err error) {
	if signal.Len() == 0 {
		return 0, 0, fmt.Errorf("%w: пустой сигнал", ErrDegenerateSignal)
	}

	mean, std = stat.PopMeanStdDev(signal.Samples, nil)
	if isDegenerate(signal.Samples, std) {
		return 0, 0, fmt.Errorf("%w: СКО = %g при среднем %g", ErrDegenerateSignal, std, mean)
	}
	return mean, std, nil
}

func isDegenerate(x []float64, std float64) bool {
	if std == 0 || math.IsNaN(std) {
		return true
	}

	var scale float64
	for _, v := range x {
		scale += math.Abs(v)
	}
	scale /= float64(len(x))

	return std <= relativeEpsilon*scale
}
