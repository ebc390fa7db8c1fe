// Package cli implements the one-shot ingestion command.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tenderbridge/tender-ingest/internal/config"
	"github.com/tenderbridge/tender-ingest/internal/ingest"
	"github.com/tenderbridge/tender-ingest/internal/logger"
	"github.com/tenderbridge/tender-ingest/internal/models"
	"github.com/tenderbridge/tender-ingest/internal/services"
)

// Exit codes
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitFetchFailed = 2
)

// Runner is the part of the tender service the command drives
type Runner interface {
	Ingest(ctx context.Context, options services.IngestOptions) (*models.IngestResponse, error)
	Normalize(ctx context.Context, records []any, options services.IngestOptions) (*models.IngestResponse, error)
}

// Factory builds the runner from configuration. The returned closer releases
// transports once the run completes.
type Factory func(cfg *config.Config, log *logrus.Logger) (Runner, io.Closer, error)

// ContainerFactory wires the runner through the service container
func ContainerFactory(cfg *config.Config, log *logrus.Logger) (Runner, io.Closer, error) {
	container, err := services.NewContainer(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return container.TenderService, container, nil
}

// ExitError carries the process exit code for a failed run
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

type options struct {
	sink        string
	groupSize   int
	input       string
	tendersOnly bool
}

// NewRootCommand creates the ingest command. Logs go to stderr and the
// result goes to the command output.
func NewRootCommand(factory Factory) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "tender-ingest",
		Short: "Fetch, normalize and deliver Eskom tenders",
		Long: `Runs one ingestion: fetches the Eskom tender feed, normalizes every
record and delivers the accepted tenders to the configured sink.
With --input, raw records are read from a file (or "-" for stdin)
instead of the feed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, factory, opts)
		},
	}

	cmd.Flags().StringVar(&opts.sink, "sink", "", "delivery sink (inline, queue, stream); defaults to INGEST_SINK")
	cmd.Flags().IntVar(&opts.groupSize, "group-size", 0, "delivery group size; defaults to INGEST_GROUP_SIZE")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "read raw records from a JSON file instead of the feed")
	cmd.Flags().BoolVar(&opts.tendersOnly, "tenders-only", false, "print only the serialized tenders of an inline run")

	return cmd
}

func run(cmd *cobra.Command, factory Factory, opts *options) error {
	if opts.groupSize < 0 {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%w: %d", services.ErrInvalidGroupSize, opts.groupSize)}
	}

	cfg, err := config.Load()
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("load configuration: %w", err)}
	}

	log := logger.NewWithOutput(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())

	runner, closer, err := factory(cfg, log)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("initialize services: %w", err)}
	}
	if closer != nil {
		defer func() {
			if err := closer.Close(); err != nil {
				log.WithError(err).Warn("Failed to release services")
			}
		}()
	}

	ingestOptions := services.IngestOptions{Sink: opts.sink, GroupSize: opts.groupSize}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var response *models.IngestResponse
	if opts.input != "" {
		records, readErr := readRecords(cmd, opts.input)
		if readErr != nil {
			return &ExitError{Code: ExitFailure, Err: readErr}
		}
		response, err = runner.Normalize(ctx, records, ingestOptions)
	} else {
		response, err = runner.Ingest(ctx, ingestOptions)
	}
	if err != nil {
		var fetchErr *ingest.FetchError
		if errors.As(err, &fetchErr) {
			return &ExitError{Code: ExitFetchFailed, Err: err}
		}
		return &ExitError{Code: ExitFailure, Err: err}
	}

	return write(cmd.OutOrStdout(), response, opts.tendersOnly)
}

func readRecords(cmd *cobra.Command, path string) ([]any, error) {
	var (
		body []byte
		err  error
	)
	if path == "-" {
		body, err = io.ReadAll(cmd.InOrStdin())
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	records, err := services.DecodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ingest.ErrInvalidFeed, err)
	}
	return records, nil
}

func write(out io.Writer, response *models.IngestResponse, tendersOnly bool) error {
	if tendersOnly {
		body := response.Tenders
		if len(body) == 0 {
			body = json.RawMessage("[]")
		}
		_, err := fmt.Fprintln(out, string(body))
		return err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// Execute runs the command and returns the process exit code
func Execute(ctx context.Context, args []string) int {
	cmd := NewRootCommand(ContainerFactory)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return ExitFailure
	}
	return ExitOK
}
