// Package preprocess объединяет полосовую фильтрацию и нормализацию в один этап.
package preprocess

import (
	"github.com/skalibog/ekgrate/internal/analysis/filter"
	"github.com/skalibog/ekgrate/internal/analysis/normalize"
	"github.com/skalibog/ekgrate/pkg/models"
)

// Preprocessor фильтрует сигнал без фазового сдвига и нормализует результат.
// Коэффициенты рассчитываются один раз в конструкторе, сам Preprocessor не меняется
// после создания и может использоваться из нескольких горутин.
type Preprocessor struct {
	coeffs *filter.Coefficients
}

// NewPreprocessor рассчитывает фильтр для заданной частоты дискретизации.
// Ошибка оборачивает filter.ErrInvalidFilterSpec.
func NewPreprocessor(spec filter.Spec, rate float64) (*Preprocessor, error) {
	coeffs, err := filter.Design(spec, rate)
	if err != nil {
		return nil, err
	}
	return &Preprocessor{coeffs: coeffs}, nil
}

// NewDefault создает Preprocessor с эталонным фильтром 0.5–50 Гц второго порядка
func NewDefault(rate float64) (*Preprocessor, error) {
	return NewPreprocessor(filter.DefaultSpec(), rate)
}

// Coefficients возвращает рассчитанный фильтр
func (p *Preprocessor) Coefficients() *filter.Coefficients {
	return p.coeffs
}

// Process возвращает новый отфильтрованный и нормализованный сигнал.
// Ошибки этапов возвращаются без изменения вида: filter.ErrFilterApplication
// или normalize.ErrDegenerateSignal.
func (p *Preprocessor) Process(signal models.Signal) (models.Signal, error) {
	// Постоянный вход после фильтра дает только шум округления,
	// поэтому вырожденность проверяется до фильтрации
	if signal.Len() >= p.coeffs.MinSignalLen() {
		if err := normalize.Check(signal); err != nil {
			return models.Signal{}, err
		}
	}

	filtered, err := filter.FiltFilt(p.coeffs, signal)
	if err != nil {
		return models.Signal{}, err
	}
	return normalize.ZScore(filtered)
}
