// Package scheduler запускает chain по cron-расписаниям.
//
// Структура:
//   - schedule.go  — файл расписаний (YAML) и его валидация
//   - cron.go      — парсинг cron-выражений, ближайшие времена запуска
//   - scheduler.go — регистрация расписаний в robfig/cron и запуск chain
//
// Использование:
//
//	schedules, err := scheduler.LoadSchedules("schedules.yaml")
//	sched := scheduler.New(scheduler.Config{
//	    Schedules: schedules,
//	    Runner:    runner.NewSystemRunner(runner.Config{}),
//	    Recorder:  rec, // опционально
//	    Logger:    logger,
//	})
//	sched.Start(ctx)
//	defer sched.Stop(shutdownCtx)
//
// Leader Election:
//
// Scheduler не реализует leader election самостоятельно.
// Это делается в main.go через pg_try_advisory_lock:
// Start вызывается только лидером.
package scheduler
