package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/router"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/store"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var autoConfirm bool
	var stage bool
	var fullOverwrite bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Stage a spreadsheet upload and route it to its persistence destinations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fault.Wrap(fault.KindFileError, err, "read %s", args[0])
			}

			asm, err := ctx.ensureAssembler()
			if err != nil {
				return err
			}

			rec, diags, err := asm.Assemble(filepath.Base(args[0]), data)
			for _, d := range diags {
				fmt.Fprintln(cmd.ErrOrStderr(), d.String())
			}
			if err != nil {
				return err
			}

			routeCfg := router.Config{
				AutoConfirm:            cfg.Router.AutoConfirm,
				PersistStagingArtifact: cfg.Router.PersistStagingArtifact,
				FullFieldOverwrite:     cfg.Router.FullFieldOverwrite,
			}
			if cmd.Flags().Changed("auto-confirm") {
				routeCfg.AutoConfirm = autoConfirm
			}
			if cmd.Flags().Changed("stage") {
				routeCfg.PersistStagingArtifact = stage
			}
			if cmd.Flags().Changed("full-overwrite") {
				routeCfg.FullFieldOverwrite = fullOverwrite
			}
			if dryRun {
				routeCfg.AutoConfirm = false
				routeCfg.PersistStagingArtifact = false
			}

			// Only a direct commit needs the database.
			var st store.Store
			if routeCfg.AutoConfirm {
				st, err = ctx.ensureStore(cmd.Context())
				if err != nil {
					return err
				}
			}
			arts, err := ctx.ensureArtifacts()
			if err != nil {
				return err
			}

			out, err := router.New(st, arts).Route(cmd.Context(), rec, routeCfg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "id_incidence %d (%s, %d fields): %s\n",
				out.IDIncidence, rec.Sector(), len(rec.Fields()), out.Message)
			if out.ArtifactRef != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "artifact: %s\n", out.ArtifactRef)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&autoConfirm, "auto-confirm", false, "Commit fields directly to the record store")
	cmd.Flags().BoolVar(&stage, "stage", true, "Write a staging artifact for review")
	cmd.Flags().BoolVar(&fullOverwrite, "full-overwrite", false, "Direct commits replace all stored fields instead of changed-only")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Assemble and validate only; persist nothing")

	return cmd
}
