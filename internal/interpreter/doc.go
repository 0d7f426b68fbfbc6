// Package interpreter описывает, чем запускаются скрипты шагов.
//
// # Обзор
//
// Шаг chain указывает интерпретатор по ключу (поле type в документе).
// Ключ разрешается через Registry в Spec:
//
//	type Spec struct {
//	    Command   string   // bash, python3, cmd
//	    Args      []string // аргументы перед путём к скрипту
//	    Extension string   // расширение временного файла
//	}
//
// # Встроенные интерпретаторы
//
//	bash        bash <file>.sh
//	batch       cmd /c <file>.bat
//	powershell  powershell -NoLogo -NoProfile -NonInteractive -ExecutionPolicy Bypass -File <file>.ps1
//	pwsh        pwsh (те же аргументы) <file>.ps1
//	python      python3 <file>.py
//	python3     python3 <file>.py
//
// Chain может переопределить любой ключ или добавить новый в секции
// interpreters. Переопределение заменяет запись целиком, слияния полей нет.
//
// # Использование
//
//	registry := interpreter.DefaultRegistry()
//	registry.Register("node", interpreter.Spec{Command: "node", Extension: ".js"})
//
//	spec, err := registry.Get("node")
//	if errors.Is(err, interpreter.ErrInterpreterNotFound) {
//	    // неизвестный ключ
//	}
package interpreter
