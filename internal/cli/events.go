package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shaiso/Atento/internal/mq"
)

// NewEventsCmd создаёт группу команд для событий RabbitMQ.
func NewEventsCmd(loggerFn func() *slog.Logger, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Chain completion events",
	}

	cmd.AddCommand(newEventsWatchCmd(loggerFn, outputFn))

	return cmd
}

func newEventsWatchCmd(loggerFn func() *slog.Logger, outputFn func() *Output) *cobra.Command {
	var amqpURL string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Consume chain.completed events and print them",
		Long: "Print chain.completed events until interrupted.\n" +
			"Events are read from a temporary exclusive queue bound to atento.chains,\n" +
			"so the chains.completed queue and its consumers are not affected.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFn()
			out := outputFn()
			ctx := cmd.Context()

			if amqpURL == "" {
				amqpURL = mq.URLFromEnv()
			}

			conn, err := mq.Dial(amqpURL, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := mq.SetupTopology(ctx, conn); err != nil {
				return fmt.Errorf("setup topology: %w", err)
			}

			consumer := mq.NewConsumer(conn, logger, mq.ConsumerConfig{
				Tap:      &mq.CompletedTap,
				Handler:  eventPrinter(out),
				Prefetch: 10,
			})

			out.Success("Watching " + string(mq.ExchangeChains) + " events, press Ctrl+C to stop")
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&amqpURL, "amqp-url", "", "RabbitMQ URL (default: $RABBITMQ_URL)")

	return cmd
}

// eventPrinter выводит события chain.completed: строкой или JSON.
// Сообщения других типов подтверждаются без вывода.
func eventPrinter(out *Output) mq.Handler {
	return func(_ context.Context, msg *mq.Message) error {
		if msg.Type != mq.MessageTypeChainCompleted {
			return nil
		}

		payload, err := mq.ParsePayload[mq.ChainCompletedPayload](msg)
		if err != nil {
			return err
		}

		if out.JSONMode() {
			out.JSON(payload)
			return nil
		}
		out.Line(formatEvent(msg, payload))
		return nil
	}
}

func formatEvent(msg *mq.Message, p mq.ChainCompletedPayload) string {
	name := p.ChainName
	if name == "" {
		name = "-"
	}
	line := fmt.Sprintf("%s  %s  %s  %s  %dms  run=%s",
		msg.Timestamp.Format("2006-01-02T15:04:05Z07:00"), name, p.Source, p.Status, p.DurationMs, p.RunID)
	for _, e := range p.Errors {
		line += "\n    " + e
	}
	return line
}
