package filter

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/skalibog/ekgrate/pkg/models"
)

// PadLen возвращает длину нечетного отражения на каждом краю сигнала: 3*max(len(a), len(b)).
// Для полосового фильтра порядка n это 6n+3 отсчета.
func (c *Coefficients) PadLen() int {
	n := len(c.a)
	if len(c.b) > n {
		n = len(c.b)
	}
	return 3 * n
}

// MinSignalLen возвращает минимальную длину сигнала для FiltFilt
func (c *Coefficients) MinSignalLen() int {
	return c.PadLen() + 1
}

// MinSignalLen возвращает минимальную длину сигнала для полосового фильтра порядка order
func MinSignalLen(order int) int {
	return 3*(2*order+1) + 1
}

// FiltFilt применяет фильтр в прямом и обратном направлении, взаимно компенсируя
// фазовый сдвиг. Края сигнала продолжаются нечетным отражением длиной PadLen,
// начальное состояние каждого прохода соответствует установившемуся отклику на
// первый отсчет прохода. Результат имеет ту же длину и частоту дискретизации,
// исходный сигнал не изменяется.
func FiltFilt(c *Coefficients, signal models.Signal) (models.Signal, error) {
	if c == nil {
		return models.Signal{}, fmt.Errorf("%w: коэффициенты не заданы", ErrFilterApplication)
	}
	if signal.SamplingRate != c.rate {
		return models.Signal{}, fmt.Errorf("%w: фильтр рассчитан для %v Гц, сигнал %v Гц",
			ErrFilterApplication, c.rate, signal.SamplingRate)
	}

	padLen := c.PadLen()
	if signal.Len() <= padLen {
		return models.Signal{}, fmt.Errorf("%w: длина сигнала %d, для порядка %d требуется не меньше %d отсчетов",
			ErrFilterApplication, signal.Len(), c.spec.Order, padLen+1)
	}

	zi, err := steadyState(c.b, c.a)
	if err != nil {
		return models.Signal{}, fmt.Errorf("%w: %v", ErrFilterApplication, err)
	}

	ext := oddExtend(signal.Samples, padLen)

	// Прямой проход
	state := make([]float64, len(zi))
	y := lfilter(c.b, c.a, ext, floats.ScaleTo(state, ext[0], zi))

	// Обратный проход
	floats.Reverse(y)
	y = lfilter(c.b, c.a, y, floats.ScaleTo(state, y[0], zi))
	floats.Reverse(y)

	out := make([]float64, signal.Len())
	copy(out, y[padLen:padLen+signal.Len()])
	return signal.WithSamples(out), nil
}

// lfilter рекурсивный фильтр в транспонированной прямой форме II, a[0] == 1
func lfilter(b, a, x, zi []float64) []float64 {
	n := len(a)
	z := append([]float64(nil), zi...)
	y := make([]float64, len(x))

	for i, xi := range x {
		yi := b[0]*xi + z[0]
		for j := 1; j < n-1; j++ {
			z[j-1] = b[j]*xi + z[j] - a[j]*yi
		}
		z[n-2] = b[n-1]*xi - a[n-1]*yi
		y[i] = yi
	}
	return y
}

// steadyState решает (I - Aᵀ) zi = b[1:] - a[1:]*b[0], где A - матрица Фробениуса
// знаменателя. zi - состояние фильтра после бесконечного единичного ступенчатого входа.
func steadyState(b, a []float64) ([]float64, error) {
	n := len(a) - 1

	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		// Первый столбец Aᵀ: -a[1:]
		m.Set(i, 0, a[i+1])
		if i < n-1 {
			m.Set(i, i+1, -1)
		}
		m.Set(i, i, m.At(i, i)+1)
	}

	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, b[i+1]-a[i+1]*b[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(m, rhs); err != nil {
		// Плохая обусловленность не мешает использовать решение
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("начальное состояние фильтра: %w", err)
		}
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = zi.AtVec(i)
	}
	return out, nil
}

// oddExtend продолжает сигнал нечетным отражением относительно крайних отсчетов
func oddExtend(x []float64, n int) []float64 {
	last := len(x) - 1
	ext := make([]float64, 0, len(x)+2*n)
	for i := n; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := 1; i <= n; i++ {
		ext = append(ext, 2*x[last]-x[last-i])
	}
	return ext
}
