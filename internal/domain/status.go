package domain

// ChainStatus — итоговый статус выполнения chain.
//
// Статус вычисляется один раз по завершении:
//
//	ok  — ни одной ошибки
//	nok — есть хотя бы одна ошибка (шаг, результат или параметр)
type ChainStatus string

const (
	// ChainStatusOK — chain выполнен без ошибок.
	ChainStatusOK ChainStatus = "ok"

	// ChainStatusNOK — во время выполнения накоплены ошибки.
	ChainStatusNOK ChainStatus = "nok"
)

// String возвращает строковое представление ChainStatus.
func (s ChainStatus) String() string {
	return string(s)
}

// ParseChainStatus парсит строку в ChainStatus.
// Неизвестные значения трактуются как nok.
func ParseChainStatus(s string) ChainStatus {
	switch s {
	case "ok":
		return ChainStatusOK
	default:
		return ChainStatusNOK
	}
}

// StatusFor возвращает статус для указанного числа ошибок.
func StatusFor(errorCount int) ChainStatus {
	if errorCount == 0 {
		return ChainStatusOK
	}
	return ChainStatusNOK
}
