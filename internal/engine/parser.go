package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Atento/internal/domain"
	"github.com/shaiso/Atento/internal/interpreter"
)

// chainDoc — форма chain в YAML/JSON документе.
type chainDoc struct {
	Name         string                      `yaml:"name"`
	Timeout      uint64                      `yaml:"timeout"`
	Interpreters map[string]interpreter.Spec `yaml:"interpreters"`
	Parameters   map[string]domain.Parameter `yaml:"parameters"`
	Steps        yaml.Node                   `yaml:"steps"`
	Results      map[string]domain.ResultRef `yaml:"results"`
}

// Parse разбирает chain из YAML (или JSON) без валидации.
//
// Умолчания: timeout chain 300, timeout шага 60, тип параметров
// и входов string. Неизвестные ключи игнорируются. Пользовательские
// интерпретаторы заменяют встроенные с тем же ключом.
func Parse(data []byte) (*Chain, error) {
	return parse("chain", data)
}

// LoadFile читает и разбирает chain из файла без валидации.
func LoadFile(path string) (*Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.IOError{Path: path, Err: err}
	}
	return parse(path, data)
}

// LoadAndValidate читает, разбирает и валидирует chain.
func LoadAndValidate(path string) (*Chain, error) {
	chain, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	return chain, nil
}

func parse(context string, data []byte) (*Chain, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &domain.ParseError{Context: context, Err: ErrEmptyDocument}
	}

	doc := chainDoc{Timeout: DefaultChainTimeout}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &domain.ParseError{Context: context, Err: err}
	}

	steps, err := decodeSteps(&doc.Steps)
	if err != nil {
		return nil, &domain.ParseError{Context: context, Err: err}
	}

	chain := &Chain{
		Name:         doc.Name,
		Timeout:      doc.Timeout,
		Interpreters: interpreter.DefaultRegistry(),
		Parameters:   make(map[string]domain.Parameter, len(doc.Parameters)),
		Steps:        steps,
		Results:      doc.Results,
	}
	if chain.Results == nil {
		chain.Results = make(map[string]domain.ResultRef)
	}

	for key, spec := range doc.Interpreters {
		chain.Interpreters.Register(key, spec)
	}

	for name, p := range doc.Parameters {
		p.Type = p.Type.OrDefault()
		chain.Parameters[name] = p
	}

	return chain, nil
}

// decodeSteps разбирает секцию steps с сохранением порядка ключей.
func decodeSteps(node *yaml.Node) ([]*Step, error) {
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %w", node.Line, ErrInvalidSteps)
	}

	steps := make([]*Step, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		id := keyNode.Value

		if id == "" {
			return nil, fmt.Errorf("line %d: %w", keyNode.Line, ErrEmptyStepID)
		}
		if seen[id] {
			return nil, fmt.Errorf("line %d: %w: %s", keyNode.Line, ErrDuplicateStepID, id)
		}
		seen[id] = true

		step := &Step{Timeout: DefaultStepTimeout}
		if err := valNode.Decode(step); err != nil {
			return nil, fmt.Errorf("step %q: %w", id, err)
		}
		step.ID = id
		steps = append(steps, step)
	}

	return steps, nil
}

// IsParseError проверяет, что ошибка — ошибка чтения или разбора документа.
func IsParseError(err error) bool {
	return errors.Is(err, domain.ErrParse) || errors.Is(err, domain.ErrIO)
}
