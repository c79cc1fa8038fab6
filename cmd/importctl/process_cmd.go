package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	app "github.com/mohammadpnp/csv-import/internal/application/importer"
	"github.com/mohammadpnp/csv-import/internal/bootstrap"
	"github.com/mohammadpnp/csv-import/internal/config"
	"github.com/mohammadpnp/csv-import/internal/logging"
)

type processSuccess struct {
	Success bool `json:"success"`
	app.ProcessResult
}

type processFailure struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newProcessCmd() *cobra.Command {
	var jobID string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run one import job to completion and print the result envelope",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := uuid.Parse(jobID); err != nil {
				return fmt.Errorf("invalid --job-id: %w", err)
			}

			envFiles, err := cmd.Flags().GetStringSlice("env-file")
			if err != nil {
				return err
			}
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			log := logging.NewWithOutput(cfg.LogLevel, cmd.ErrOrStderr())

			a, err := bootstrap.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Processor.Process(cmd.Context(), jobID)
			if writeErr := writeEnvelope(cmd.OutOrStdout(), result, err); writeErr != nil {
				return writeErr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&jobID, "job-id", "", "Import job UUID (required)")
	_ = cmd.MarkFlagRequired("job-id")
	return cmd
}

func writeEnvelope(w io.Writer, result app.ProcessResult, processErr error) error {
	var out any = processSuccess{Success: true, ProcessResult: result}
	if processErr != nil {
		out = processFailure{Error: "Processing failed", Message: processErr.Error()}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
