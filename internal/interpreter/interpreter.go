package interpreter

import "errors"

// ErrInterpreterNotFound — интерпретатор с таким ключом не зарегистрирован.
var ErrInterpreterNotFound = errors.New("interpreter not found")

// Spec — описание интерпретатора: как запустить скрипт.
//
// Команда запуска: Command Args... <путь к временному файлу>.
type Spec struct {
	// Command — исполняемый файл (bash, python3, /usr/bin/node).
	Command string `yaml:"command" json:"command"`

	// Args — аргументы перед путём к скрипту.
	Args []string `yaml:"args" json:"args,omitempty"`

	// Extension — расширение временного файла со скриптом (.sh, .py).
	Extension string `yaml:"extension" json:"extension"`
}

// IsValid проверяет, что заданы команда и расширение.
func (s Spec) IsValid() bool {
	return s.Command != "" && s.Extension != ""
}

// Argv возвращает полную командную строку для файла скрипта.
func (s Spec) Argv(scriptPath string) []string {
	argv := make([]string, 0, len(s.Args)+2)
	argv = append(argv, s.Command)
	argv = append(argv, s.Args...)
	return append(argv, scriptPath)
}

var powershellArgs = []string{
	"-NoLogo",
	"-NoProfile",
	"-NonInteractive",
	"-ExecutionPolicy",
	"Bypass",
	"-File",
}

// Defaults возвращает встроенные интерпретаторы.
func Defaults() map[string]Spec {
	return map[string]Spec{
		"bash":       {Command: "bash", Extension: ".sh"},
		"batch":      {Command: "cmd", Args: []string{"/c"}, Extension: ".bat"},
		"powershell": {Command: "powershell", Args: append([]string(nil), powershellArgs...), Extension: ".ps1"},
		"pwsh":       {Command: "pwsh", Args: append([]string(nil), powershellArgs...), Extension: ".ps1"},
		"python":     {Command: "python3", Extension: ".py"},
		"python3":    {Command: "python3", Extension: ".py"},
	}
}
