package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/reconcile"
)

func newDiffCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <id_incidence>",
		Short: "Show staged fields that differ from the stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("id_incidence must be an integer: %q", args[0])
			}

			eng, err := newEngine(ctx, cmd)
			if err != nil {
				return err
			}

			status, err := eng.Status(cmd.Context(), id)
			if err != nil {
				return err
			}
			entries, err := eng.Diff(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "id_incidence %d: %s\n", id, status.State)
			if len(entries) == 0 {
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				confirmed := ""
				if e.Confirmed {
					confirmed = "yes"
				}
				rows = append(rows, []string{e.Field, e.Stored, e.Incoming, confirmed})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Stored", "Incoming", "Confirmed"}, rows))
			return nil
		},
	}
	return cmd
}

// newEngine wires a reconciliation engine over the live store and the
// staging directory.
func newEngine(ctx *commandContext, cmd *cobra.Command) (*reconcile.Engine, error) {
	st, err := ctx.ensureStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	arts, err := ctx.ensureArtifacts()
	if err != nil {
		return nil, err
	}
	return reconcile.NewEngine(st, arts), nil
}
