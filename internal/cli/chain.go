package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Atento/internal/api"
	"github.com/shaiso/Atento/internal/engine"
	"github.com/shaiso/Atento/internal/interpreter"
)

// NewValidateCmd создаёт команду проверки chain без выполнения.
func NewValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a chain without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			chain, err := engine.LoadAndValidate(args[0])
			if err != nil {
				return err
			}

			if out.JSONMode() {
				out.JSON(api.ValidateResponse{Valid: true, Name: chain.Name, Steps: chain.StepIDs()})
				return nil
			}
			out.Line("chain is valid")
			return nil
		},
	}
}

// NewInterpretersCmd создаёт команду вывода реестра интерпретаторов.
func NewInterpretersCmd(outputFn func() *Output) *cobra.Command {
	var chainFile string

	cmd := &cobra.Command{
		Use:   "interpreters",
		Short: "List available interpreters",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			registry := interpreter.DefaultRegistry()
			if chainFile != "" {
				chain, err := engine.LoadFile(chainFile)
				if err != nil {
					return err
				}
				registry = chain.Interpreters
			}

			items := api.InterpretersFromRegistry(registry)
			rows := make([][]string, len(items))
			for i, it := range items {
				rows[i] = []string{it.Name, it.Command, strings.Join(it.Args, " "), it.Extension}
			}

			out.Print([]string{"NAME", "COMMAND", "ARGS", "EXTENSION"}, rows, items)
			return nil
		},
	}

	cmd.Flags().StringVar(&chainFile, "chain", "", "Include interpreters declared in this chain file")

	return cmd
}
