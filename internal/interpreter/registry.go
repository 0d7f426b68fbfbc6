package interpreter

import (
	"fmt"
	"sort"
	"sync"
)

// Registry — реестр интерпретаторов.
//
// Позволяет регистрировать и получать Spec по ключу.
// Потокобезопасен.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		specs: make(map[string]Spec),
	}
}

// DefaultRegistry создаёт реестр со всеми встроенными интерпретаторами.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for key, spec := range Defaults() {
		r.Register(key, spec)
	}
	return r
}

// Register регистрирует интерпретатор.
// Если интерпретатор с таким ключом уже существует, он заменяется целиком.
func (r *Registry) Register(key string, spec Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[key] = spec
}

// Get возвращает интерпретатор по ключу.
// Возвращает ErrInterpreterNotFound, если ключ не найден.
func (r *Registry) Get(key string) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, exists := r.specs[key]
	if !exists {
		return Spec{}, fmt.Errorf("%w: %s", ErrInterpreterNotFound, key)
	}

	return spec, nil
}

// Has проверяет, зарегистрирован ли интерпретатор.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.specs[key]
	return exists
}

// Keys возвращает отсортированный список ключей.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.specs))
	for k := range r.specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone возвращает независимую копию реестра.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := NewRegistry()
	for k, v := range r.specs {
		v.Args = append([]string(nil), v.Args...)
		c.specs[k] = v
	}
	return c
}
