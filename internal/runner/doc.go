// Package runner выполняет скрипты шагов во внешних процессах.
//
// # Обзор
//
// Runner — единственная точка, где движок касается ОС:
//
//	type Runner interface {
//	    Execute(ctx, script, spec, timeoutSecs) (*Result, error)
//	}
//
// SystemRunner:
//  1. Пишет скрипт (с завершающим переводом строки) во временный файл
//     atento_<uuid><ext> с правами 0700
//  2. Запускает spec.Command spec.Args... <файл>
//  3. Ждёт завершения не дольше timeoutSecs (0 — сутки)
//  4. Удаляет временный файл на любом пути выхода
//
// Для .ps1 выставляется POWERSHELL_TELEMETRY_OPTOUT=1, а строки stderr
// с "[Perftrack" или "NamedPipeIPC" отбрасываются.
//
// # Ошибки
//
//   - *domain.RunnerError — пустой скрипт, невалидный интерпретатор,
//     не удалось записать файл или запустить процесс, отмена ctx
//   - *domain.TimeoutError — процесс превысил таймаут и был убит
//
// Ненулевой код выхода ошибкой не считается.
package runner
