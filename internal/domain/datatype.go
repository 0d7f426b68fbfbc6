package domain

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DataType — объявленный тип параметра, входа или output.
//
// Значения на границе со скриптом всегда строки:
// DataType определяет, какие нативные значения допустимы при конвертации.
type DataType string

const (
	TypeString   DataType = "string"
	TypeInt      DataType = "int"
	TypeFloat    DataType = "float"
	TypeBool     DataType = "bool"
	TypeDateTime DataType = "datetime"
)

// IsValid проверяет, что тип входит в допустимый набор.
func (t DataType) IsValid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool, TypeDateTime:
		return true
	default:
		return false
	}
}

// OrDefault возвращает TypeString для пустого типа.
func (t DataType) OrDefault() DataType {
	if t == "" {
		return TypeString
	}
	return t
}

// UnmarshalYAML реализует yaml.Unmarshaler.
func (t *DataType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	dt := DataType(s)
	if !dt.IsValid() {
		return fmt.Errorf("line %d: unknown data type %q", node.Line, s)
	}
	*t = dt
	return nil
}

// ToStringValue конвертирует нативное значение в строку согласно типу.
//
// Числовые строки не приводятся: "42" для int — ошибка.
func ToStringValue(t DataType, v any) (string, error) {
	switch t.OrDefault() {
	case TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return "", conversionError("string", v)

	case TypeDateTime:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return "", conversionError("datetime string", v)

	case TypeInt:
		if i, ok := asInt64(v); ok {
			return strconv.FormatInt(i, 10), nil
		}
		return "", conversionError("int", v)

	case TypeFloat:
		if f, ok := asFloat64(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
		return "", conversionError("float", v)

	case TypeBool:
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b), nil
		}
		return "", conversionError("bool", v)
	}

	return "", conversionError(string(t), v)
}

func conversionError(expected string, v any) *TypeConversionError {
	return &TypeConversionError{Expected: expected, Got: describeValue(v)}
}

// describeValue — короткое представление значения для сообщений об ошибках.
func describeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	default:
		return fmt.Sprint(x)
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	if u, ok := v.(uint64); ok {
		return float64(u), true
	}
	return 0, false
}
