package scheduler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Ошибки файла расписаний.
var (
	ErrEmptyScheduleName = errors.New("schedule name is empty")
	ErrDuplicateSchedule = errors.New("duplicate schedule name")
	ErrEmptyChainPath    = errors.New("schedule chain path is empty")
)

// Schedule — периодический запуск chain по cron-выражению.
type Schedule struct {
	// Name — уникальное имя, попадает в source запуска: schedule:<name>.
	Name string `json:"name"`

	// Cron — 5-польное cron-выражение.
	Cron string `json:"cron"`

	// Chain — путь к файлу chain. Относительный путь
	// разрешается от каталога файла расписаний.
	Chain string `json:"chain"`

	// Timezone — IANA timezone для cron. Пусто — локальное время.
	Timezone string `json:"timezone,omitempty"`

	// Enabled — выключенные расписания загружаются, но не запускаются.
	Enabled bool `json:"enabled"`
}

// Location возвращает timezone расписания (UTC, если timezone невалидный).
func (s *Schedule) Location() *time.Location {
	if s.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Spec возвращает выражение для cron.Parser с учётом timezone.
func (s *Schedule) Spec() string {
	if s.Timezone == "" {
		return s.Cron
	}
	return "CRON_TZ=" + s.Timezone + " " + s.Cron
}

// Validate проверяет расписание.
func (s *Schedule) Validate() error {
	if s.Name == "" {
		return ErrEmptyScheduleName
	}
	if s.Chain == "" {
		return fmt.Errorf("schedule '%s': %w", s.Name, ErrEmptyChainPath)
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("schedule '%s': invalid timezone %q: %w", s.Name, s.Timezone, err)
		}
	}
	if err := ValidateCronExpr(s.Cron); err != nil {
		return fmt.Errorf("schedule '%s': %w", s.Name, err)
	}
	return nil
}

type scheduleDoc struct {
	Schedules []struct {
		Name     string `yaml:"name"`
		Cron     string `yaml:"cron"`
		Chain    string `yaml:"chain"`
		Timezone string `yaml:"timezone"`
		Enabled  *bool  `yaml:"enabled"`
	} `yaml:"schedules"`
}

// LoadSchedules читает и валидирует файл расписаний.
//
// Формат:
//
//	schedules:
//	  - name: nightly
//	    cron: "0 3 * * *"
//	    chain: chains/nightly.yaml
//	    enabled: true   # по умолчанию
func LoadSchedules(path string) ([]Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedules file: %w", err)
	}

	schedules, err := ParseSchedules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range schedules {
		if !filepath.IsAbs(schedules[i].Chain) {
			schedules[i].Chain = filepath.Join(base, schedules[i].Chain)
		}
	}
	return schedules, nil
}

// ParseSchedules разбирает и валидирует расписания из YAML.
// Пути к chain остаются как есть.
func ParseSchedules(data []byte) ([]Schedule, error) {
	var doc scheduleDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schedules: %w", err)
	}

	seen := make(map[string]bool, len(doc.Schedules))
	schedules := make([]Schedule, 0, len(doc.Schedules))

	for _, raw := range doc.Schedules {
		s := Schedule{
			Name:     raw.Name,
			Cron:     raw.Cron,
			Chain:    raw.Chain,
			Timezone: raw.Timezone,
			Enabled:  raw.Enabled == nil || *raw.Enabled,
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSchedule, s.Name)
		}
		seen[s.Name] = true
		schedules = append(schedules, s)
	}

	return schedules, nil
}
