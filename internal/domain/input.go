package domain

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// InputKind — вариант входа шага.
type InputKind int

const (
	// InputRef — ссылка на параметр chain или output предыдущего шага.
	InputRef InputKind = iota

	// InputInline — значение, заданное прямо в шаге.
	InputInline
)

// String возвращает строковое представление InputKind.
func (k InputKind) String() string {
	switch k {
	case InputRef:
		return "ref"
	case InputInline:
		return "inline"
	default:
		return "unknown"
	}
}

// Input — вход шага.
//
// Ref-вход хранит ключ вида "parameters.<name>" или
// "steps.<step>.outputs.<output>". Inline-вход хранит тип и значение.
type Input struct {
	Kind  InputKind
	Ref   string
	Type  DataType
	Value any
}

// RefInput создаёт Ref-вход.
func RefInput(ref string) Input {
	return Input{Kind: InputRef, Ref: ref}
}

// InlineInput создаёт Inline-вход.
func InlineInput(t DataType, v any) Input {
	return Input{Kind: InputInline, Type: t.OrDefault(), Value: v}
}

// IsRef возвращает true для Ref-входа.
func (in Input) IsRef() bool {
	return in.Kind == InputRef
}

// inputDoc — форма входа в документе.
type inputDoc struct {
	Ref   *string   `yaml:"ref"`
	Type  *DataType `yaml:"type"`
	Value any       `yaml:"value"`
}

// UnmarshalYAML реализует yaml.Unmarshaler.
//
// Порядок различения важен:
//  1. mapping с ключом ref — Ref-вход (type и value игнорируются);
//  2. иначе mapping с ключом type или value — Inline-вход,
//     отсутствующий value даёт nil, отсутствующий type — string;
//  3. всё остальное — ошибка разбора.
func (in *Input) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: input must be a mapping with 'ref' or 'type'/'value'", node.Line)
	}

	var doc inputDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}

	switch {
	case doc.Ref != nil:
		*in = RefInput(*doc.Ref)
	case doc.Type != nil || hasKey(node, "value"):
		t := TypeString
		if doc.Type != nil {
			t = *doc.Type
		}
		*in = InlineInput(t, doc.Value)
	default:
		return fmt.Errorf("line %d: input must declare 'ref' or 'type'/'value'", node.Line)
	}
	return nil
}

// hasKey проверяет наличие ключа в mapping-узле.
func hasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}
