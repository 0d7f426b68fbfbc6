package domain

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Output — именованное значение, извлекаемое из stdout шага.
//
// Pattern — регулярное выражение, значение берётся из первой группы захвата.
// Type носит информационный характер: извлечённое значение всегда строка.
type Output struct {
	Name    string   `yaml:"-" json:"name"`
	Pattern string   `yaml:"pattern" json:"pattern"`
	Type    DataType `yaml:"type" json:"type,omitempty"`
}

// Outputs — outputs шага в порядке объявления.
//
// В документе задаются как mapping name → {pattern, type},
// порядок ключей сохраняется.
type Outputs []Output

// Names возвращает имена outputs в порядке объявления.
func (o Outputs) Names() []string {
	names := make([]string, len(o))
	for i, out := range o {
		names[i] = out.Name
	}
	return names
}

// UnmarshalYAML реализует yaml.Unmarshaler.
func (o *Outputs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: outputs must be a mapping", node.Line)
	}

	result := make(Outputs, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		name := keyNode.Value
		if seen[name] {
			return fmt.Errorf("line %d: duplicate output %q", keyNode.Line, name)
		}
		seen[name] = true

		var out Output
		if err := valNode.Decode(&out); err != nil {
			return fmt.Errorf("output %q: %w", name, err)
		}
		out.Name = name
		out.Type = out.Type.OrDefault()
		result = append(result, out)
	}

	*o = result
	return nil
}
