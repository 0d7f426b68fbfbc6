package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер 5-польных cron-выражений.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// NextRuns возвращает n ближайших времён запуска после from в timezone расписания.
func NextRuns(sched *Schedule, from time.Time, n int) ([]time.Time, error) {
	schedule, err := cronParser.Parse(sched.Cron)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", sched.Cron, err)
	}

	runs := make([]time.Time, 0, n)
	next := from.In(sched.Location())
	for range n {
		next = schedule.Next(next)
		if next.IsZero() {
			break
		}
		runs = append(runs, next)
	}
	return runs, nil
}

// cronLogger — адаптер slog для cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
