package domain

import "strings"

// Префиксы ссылок.
const (
	ParametersPrefix = "parameters."
	StepsPrefix      = "steps."
)

// Parameter — именованное значение уровня chain.
// Доступно шагам по ключу "parameters.<name>".
type Parameter struct {
	Type  DataType `yaml:"type" json:"type"`
	Value any      `yaml:"value" json:"value"`
}

// ToString конвертирует значение параметра в строку.
func (p Parameter) ToString() (string, error) {
	return ToStringValue(p.Type, p.Value)
}

// ResultRef — именованный результат chain, ссылающийся на output шага.
type ResultRef struct {
	Ref string `yaml:"ref" json:"ref"`
}

// ParameterKey возвращает ключ ссылки для параметра.
func ParameterKey(name string) string {
	return ParametersPrefix + name
}

// OutputKey возвращает ключ ссылки для output шага.
func OutputKey(step, output string) string {
	return StepsPrefix + step + ".outputs." + output
}

// TrimParametersPrefix отрезает префикс "parameters." у ссылки.
func TrimParametersPrefix(ref string) (string, bool) {
	if name, ok := strings.CutPrefix(ref, ParametersPrefix); ok {
		return name, true
	}
	return ref, false
}
