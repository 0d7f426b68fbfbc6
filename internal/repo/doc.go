// Package repo — слой хранения в PostgreSQL (pgx/v5).
//
// Включает:
//   - db.go             — пул соединений (DB_URL)
//   - chain_run_repo.go — архив завершённых запусков chain (таблица chain_runs)
//   - lock.go           — advisory-блокировка для лидерства scheduler
//
// Архив не хранит состояние между запусками: каждая запись — неизменяемый
// ChainResult в JSONB плюс несколько колонок для фильтрации.
package repo
