// Package engine содержит движок валидации и выполнения chain.
//
// Включает:
//   - parser.go — разбор chain из YAML/JSON (порядок шагов сохраняется)
//   - chain.go  — Chain: Validate и последовательный Run
//   - step.go   — Step: валидация, подстановка входов, извлечение outputs
//
// # Формат документа
//
//	name: deploy
//	timeout: 300            # бюджет chain, 0 — без ограничения
//	parameters:
//	  env:
//	    type: string
//	    value: prod
//	steps:
//	  build:
//	    type: bash          # ключ интерпретатора
//	    timeout: 60         # 0 — остаток бюджета chain
//	    script: make {{ inputs.target }}
//	    inputs:
//	      target:
//	        ref: parameters.env
//	    outputs:
//	      artifact:
//	        pattern: 'ARTIFACT=(\S+)'
//	results:
//	  artifact:
//	    ref: steps.build.outputs.artifact
//
// # Ссылки
//
//   - parameters.<name>               — параметр chain
//   - steps.<step>.outputs.<output>   — output более раннего шага
//
// Validate запрещает ссылки вперёд: шаг видит только outputs шагов,
// объявленных до него.
//
// # Выполнение
//
// Run выполняет шаги по одному. Первая ошибка останавливает цикл,
// после чего всё равно разрешаются результаты и сериализуются параметры.
// Ошибки накапливаются в ChainResult.Errors, status = ok только без ошибок.
package engine
