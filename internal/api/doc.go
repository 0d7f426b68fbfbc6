// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go             — Handler с DI (архив, runner, recorder, logger)
//   - routes.go              — регистрация маршрутов
//   - middleware.go          — middleware (logging, recovery, лимит тела)
//   - response.go            — унифицированные JSON-ответы и обработка ошибок
//   - dto.go                 — Data Transfer Objects
//   - chain_handler.go       — проверка и запуск chain
//   - run_handler.go         — архив запусков
//   - interpreter_handler.go — встроенные интерпретаторы
//
// Тело /chains/validate — документ chain в YAML или JSON.
// /chains/run выполняет только файлы из ChainsDir: тело {"chain": "<файл>"}.
package api
