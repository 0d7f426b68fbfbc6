package engine

import "errors"

// Ошибки структуры документа chain.
// Возвращаются обёрнутыми в *domain.ParseError.
var (
	// ErrEmptyDocument — документ пуст.
	ErrEmptyDocument = errors.New("chain document is empty")

	// ErrInvalidSteps — секция steps не является mapping.
	ErrInvalidSteps = errors.New("steps must be a mapping of step id to step")

	// ErrDuplicateStepID — несколько шагов с одинаковым ID.
	ErrDuplicateStepID = errors.New("duplicate step ID")

	// ErrEmptyStepID — шаг не имеет ID.
	ErrEmptyStepID = errors.New("step has empty ID")
)
