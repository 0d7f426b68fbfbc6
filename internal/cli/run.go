package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shaiso/Atento/internal/domain"
	"github.com/shaiso/Atento/internal/engine"
	"github.com/shaiso/Atento/internal/recorder"
	"github.com/shaiso/Atento/internal/runner"
	"github.com/shaiso/Atento/internal/telemetry"
)

// ErrChainFailed — chain выполнен со статусом nok. Результат уже выведен.
var ErrChainFailed = errors.New("chain finished with status nok")

// Deps — зависимости локальных команд.
type Deps struct {
	Logger *slog.Logger
	Runner runner.Runner

	// OpenRecorder подключает архив и события для --record.
	// Возвращённая функция освобождает соединения.
	OpenRecorder func(ctx context.Context) (*recorder.Recorder, func(), error)
}

// NewRunCmd создаёт команду локального выполнения chain.
func NewRunCmd(depsFn func() Deps, outputFn func() *Output) *cobra.Command {
	var record bool
	var params []string

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Validate and run a chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := depsFn()
			out := outputFn()

			chain, err := engine.LoadAndValidate(args[0])
			if err != nil {
				return err
			}
			if err := applyParams(chain, params); err != nil {
				return err
			}

			ctx := telemetry.WithLogger(cmd.Context(), deps.Logger)
			started := time.Now()
			result := chain.Run(ctx, deps.Runner)

			if record {
				recordRun(ctx, deps, out, result, started)
			}

			printResult(out, result)

			if !result.OK() {
				return ErrChainFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&record, "record", false, "Archive the run (DB_URL) and publish chain.completed (RABBITMQ_URL)")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Override a parameter value as KEY=VALUE (repeatable)")

	return cmd
}

// recordRun записывает результат. Ошибки только выводятся: статус chain не меняется.
func recordRun(ctx context.Context, deps Deps, out *Output, result *domain.ChainResult, started time.Time) {
	if deps.OpenRecorder == nil {
		out.Error("recording is not available")
		return
	}

	rec, closeFn, err := deps.OpenRecorder(ctx)
	if err != nil {
		out.Error(fmt.Sprintf("run not recorded: %v", err))
		return
	}
	defer closeFn()

	run, err := rec.Record(ctx, domain.SourceCLI, result, started)
	if err != nil {
		out.Error(fmt.Sprintf("run not fully recorded: %v", err))
	}
	if run != nil {
		out.Success("Run recorded: " + run.ID.String())
	}
}

// applyParams подставляет значения параметров из --param KEY=VALUE.
//
// Для string и datetime значение берётся как есть, для остальных
// типов разбирается как YAML-скаляр (42, 1.5, true).
func applyParams(chain *engine.Chain, kvs []string) error {
	for _, kv := range kvs {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid parameter format %q, expected KEY=VALUE", kv)
		}

		param, exists := chain.Parameters[key]
		if !exists {
			return fmt.Errorf("unknown parameter %q", key)
		}

		switch param.Type {
		case domain.TypeString, domain.TypeDateTime:
			param.Value = raw
		default:
			var v any
			if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
				v = raw
			}
			param.Value = v
		}
		chain.Parameters[key] = param
	}
	return nil
}

func printResult(out *Output, result *domain.ChainResult) {
	if out.JSONMode() {
		out.JSON(result)
		return
	}

	headers := []string{"STEP", "EXIT", "DURATION", "OUTPUTS"}
	rows := make([][]string, len(result.Steps))
	for i, s := range result.Steps {
		rows[i] = []string{
			s.ID,
			strconv.Itoa(s.ExitCode),
			fmt.Sprintf("%dms", s.DurationMs),
			formatPairs(s.Outputs),
		}
	}
	out.Table(headers, rows)

	if len(result.Results) > 0 {
		out.Line("")
		names := make([]string, 0, len(result.Results))
		for name := range result.Results {
			names = append(names, name)
		}
		sort.Strings(names)

		rows := make([][]string, len(names))
		for i, name := range names {
			rows[i] = []string{name, result.Results[name]}
		}
		out.Table([]string{"RESULT", "VALUE"}, rows)
	}

	for _, err := range result.Errors {
		out.Error(err.Error())
	}

	label := result.Name
	if label == "" {
		label = "chain"
	}
	out.Success(fmt.Sprintf("%s: %s in %dms", label, result.Status, result.DurationMs))
}

func formatPairs(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + m[k]
	}
	return strings.Join(pairs, ",")
}
