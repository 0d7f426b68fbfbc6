// Package mq публикует и потребляет события о выполненных chain через RabbitMQ.
//
// Структура:
//   - connection.go — соединение с reconnect
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация chain.completed
//   - consumer.go   — потребление с ack/nack
//
// Тип сообщений: chain.completed. Exchange atento.chains, очередь
// chains.completed; необработанные сообщения уходят в dlq.chains.
package mq
