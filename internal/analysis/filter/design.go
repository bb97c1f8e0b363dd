// Package filter рассчитывает и применяет полосовой фильтр Баттерворта.
package filter

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInvalidFilterSpec параметры фильтра нарушают ограничения Найквиста или порядок частот
	ErrInvalidFilterSpec = errors.New("некорректные параметры фильтра")
	// ErrFilterApplication сигнал не может быть отфильтрован заданным фильтром
	ErrFilterApplication = errors.New("ошибка применения фильтра")
)

// Spec параметры полосового фильтра
type Spec struct {
	Order  int
	LowHz  float64
	HighHz float64
}

// DefaultSpec пропускает полосу QRS-комплекса, подавляя дрейф изолинии и сетевую/мышечную помеху
func DefaultSpec() Spec {
	return Spec{Order: 2, LowHz: 0.5, HighHz: 50.0}
}

// Coefficients коэффициенты цифрового фильтра.
// После расчета не изменяются и могут использоваться из нескольких горутин.
type Coefficients struct {
	b    []float64
	a    []float64
	spec Spec
	rate float64
}

// B возвращает копию коэффициентов прямой связи
func (c *Coefficients) B() []float64 {
	return append([]float64(nil), c.b...)
}

// A возвращает копию коэффициентов обратной связи, A()[0] == 1
func (c *Coefficients) A() []float64 {
	return append([]float64(nil), c.a...)
}

// Spec возвращает параметры, по которым рассчитан фильтр
func (c *Coefficients) Spec() Spec {
	return c.spec
}

// SamplingRate возвращает частоту дискретизации, для которой рассчитан фильтр
func (c *Coefficients) SamplingRate() float64 {
	return c.rate
}

// Validate проверяет параметры фильтра для заданной частоты дискретизации
func (s Spec) Validate(rate float64) error {
	if s.Order < 1 {
		return fmt.Errorf("%w: порядок должен быть >= 1, получено %d", ErrInvalidFilterSpec, s.Order)
	}
	if !(rate > 0) || math.IsInf(rate, 0) {
		return fmt.Errorf("%w: частота дискретизации должна быть > 0, получено %v", ErrInvalidFilterSpec, rate)
	}

	nyquist := rate / 2
	switch {
	case !(s.LowHz > 0):
		return fmt.Errorf("%w: нижняя частота среза должна быть > 0, получено %v", ErrInvalidFilterSpec, s.LowHz)
	case !(s.LowHz < s.HighHz):
		return fmt.Errorf("%w: нижняя частота среза %v не меньше верхней %v", ErrInvalidFilterSpec, s.LowHz, s.HighHz)
	case !(s.HighHz < nyquist):
		return fmt.Errorf("%w: верхняя частота среза %v не ниже частоты Найквиста %v", ErrInvalidFilterSpec, s.HighHz, nyquist)
	}
	return nil
}

// Design рассчитывает полосовой фильтр Баттерворта.
//
// Аналоговый прототип нижних частот переносится в полосу с предыскажением частот
// среза и переводится в цифровую область билинейным преобразованием.
// Длина обоих наборов коэффициентов равна 2*Order+1.
func Design(spec Spec, rate float64) (*Coefficients, error) {
	if err := spec.Validate(rate); err != nil {
		return nil, err
	}

	nyquist := rate / 2
	low := spec.LowHz / nyquist
	high := spec.HighHz / nyquist

	// Частоты среза в аналоговой области для fs = 2
	const fs = 2.0
	warpedLow := 2 * fs * math.Tan(math.Pi*low/fs)
	warpedHigh := 2 * fs * math.Tan(math.Pi*high/fs)
	bw := warpedHigh - warpedLow
	wo := math.Sqrt(warpedLow * warpedHigh)

	n := spec.Order

	// Полюса аналогового прототипа Баттерворта
	proto := make([]complex128, 0, n)
	for m := -n + 1; m < n; m += 2 {
		proto = append(proto, -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*n))))
	}

	// НЧ -> полосовой: каждый полюс дает пару, в нуле появляется n нулей
	poles := make([]complex128, 0, 2*n)
	for _, p := range proto {
		lp := p * complex(bw/2, 0)
		root := cmplx.Sqrt(lp*lp - complex(wo*wo, 0))
		poles = append(poles, lp+root)
	}
	for _, p := range proto {
		lp := p * complex(bw/2, 0)
		root := cmplx.Sqrt(lp*lp - complex(wo*wo, 0))
		poles = append(poles, lp-root)
	}
	zeros := make([]complex128, n)
	gain := math.Pow(bw, float64(n))

	// Билинейное преобразование
	const fs2 = 2 * fs
	num := complex(1, 0)
	den := complex(1, 0)
	digitalZeros := make([]complex128, 0, 2*n)
	for _, z := range zeros {
		digitalZeros = append(digitalZeros, (fs2+z)/(fs2-z))
		num *= fs2 - z
	}
	digitalPoles := make([]complex128, 0, 2*n)
	for _, p := range poles {
		digitalPoles = append(digitalPoles, (fs2+p)/(fs2-p))
		den *= fs2 - p
	}
	// Нули на бесконечности переходят в частоту Найквиста
	for i := 0; i < len(poles)-len(zeros); i++ {
		digitalZeros = append(digitalZeros, -1)
	}
	gain *= real(num / den)

	b := realPoly(digitalZeros)
	floats.Scale(gain, b)
	a := realPoly(digitalPoles)

	return &Coefficients{b: b, a: a, spec: spec, rate: rate}, nil
}

// realPoly раскрывает произведение (x - r) по корням и возвращает вещественные
// коэффициенты начиная со старшей степени. Корни приходят комплексно-сопряженными
// парами, мнимая часть результата отбрасывается.
func realPoly(roots []complex128) []float64 {
	coeffs := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * r
		}
		coeffs = next
	}

	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[i] = real(c)
	}
	return out
}

// Response возвращает модуль частотной характеристики фильтра на частоте hz
func (c *Coefficients) Response(hz float64) float64 {
	w := 2 * math.Pi * hz / c.rate
	var num, den complex128
	for k, v := range c.b {
		num += complex(v, 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}
	for k, v := range c.a {
		den += complex(v, 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}
	return cmplx.Abs(num / den)
}
