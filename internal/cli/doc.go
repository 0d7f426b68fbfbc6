// Package cli реализует инструмент командной строки Atento.
//
// # Обзор
//
// Локальные команды читают файлы и выполняют chain в текущем процессе:
//   - run FILE          — проверка и выполнение chain
//   - validate FILE     — только проверка
//   - interpreters      — реестр интерпретаторов
//   - schedules         — проверка файла расписаний, ближайшие запуски
//
// Удалённые команды работают с atento-api и RabbitMQ:
//   - runs list/show    — архив запусков через HTTP API
//   - events watch      — поток событий chain.completed
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Atento API: разбор DataResponse, ListResponse
// и ErrorResponse.
//
//	client := cli.NewClient("http://localhost:8080")
//	runs, err := client.ListRuns(cli.ListRunsOpts{Status: "nok"})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения и логи — в stderr.
// Это позволяет использовать pipe: atento run chain.yaml --json | jq .results
//
// ## Commands
//
// Каждая команда создаётся фабричной функцией (NewRunCmd и т.д.),
// принимающей замыкания для ленивого создания Client, Output и Deps
// после парсинга PersistentFlags.
package cli
