package domain

import (
	"bytes"
	"encoding/json"
)

// StepResult — неизменяемая запись о выполнении одного шага.
type StepResult struct {
	// ID — ключ шага в chain.
	ID string `json:"-"`

	Name       string            `json:"name,omitempty"`
	DurationMs int64             `json:"duration_ms"`
	ExitCode   int               `json:"exit_code"`
	Inputs     map[string]string `json:"inputs,omitempty"`
	Outputs    map[string]string `json:"outputs,omitempty"`
	Stdout     string            `json:"stdout,omitempty"`
	Stderr     string            `json:"stderr,omitempty"`

	// Err — ошибка запуска или извлечения outputs.
	Err error `json:"-"`
}

// Failed возвращает true, если шаг завершился с ошибкой.
func (r *StepResult) Failed() bool {
	return r.Err != nil
}

// MarshalJSON реализует json.Marshaler: Err сериализуется как поле error.
func (r *StepResult) MarshalJSON() ([]byte, error) {
	type alias StepResult
	out := struct {
		*alias
		Error json.RawMessage `json:"error,omitempty"`
	}{alias: (*alias)(r)}

	if r.Err != nil {
		b, err := MarshalError(r.Err)
		if err != nil {
			return nil, err
		}
		out.Error = b
	}
	return json.Marshal(out)
}

// StepResults — результаты шагов в порядке выполнения.
//
// Сериализуется как JSON-объект step id → StepResult с сохранением порядка.
type StepResults []*StepResult

// Get возвращает результат шага по ID.
func (s StepResults) Get(id string) (*StepResult, bool) {
	for _, r := range s {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// MarshalJSON реализует json.Marshaler.
func (s StepResults) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ChainResult — неизменяемая запись о выполнении chain.
//
// Создаётся один раз в конце Chain.Run. Пустые коллекции не сериализуются.
type ChainResult struct {
	Name       string            `json:"name,omitempty"`
	DurationMs int64             `json:"duration_ms"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Steps      StepResults       `json:"steps,omitempty"`
	Results    map[string]string `json:"results,omitempty"`
	Errors     Errors            `json:"errors,omitempty"`
	Status     ChainStatus       `json:"status"`
}

// OK возвращает true для статуса ok.
func (r *ChainResult) OK() bool {
	return r.Status == ChainStatusOK
}
