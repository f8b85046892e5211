package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var fieldsFlag string
	var all bool

	cmd := &cobra.Command{
		Use:   "apply <id_incidence>",
		Short: "Confirm staged field values and write them to the record store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("id_incidence must be an integer: %q", args[0])
			}
			if all == (fieldsFlag != "") {
				return fmt.Errorf("specify exactly one of --all or --fields")
			}

			eng, err := newEngine(ctx, cmd)
			if err != nil {
				return err
			}

			var accepted []string
			if all {
				entries, err := eng.Diff(cmd.Context(), id)
				if err != nil {
					return err
				}
				for _, e := range entries {
					accepted = append(accepted, e.Field)
				}
				if len(accepted) == 0 {
					// Nothing outstanding; Apply handles the converged case.
					accepted = nil
				}
			} else {
				for _, f := range strings.Split(fieldsFlag, ",") {
					if f = strings.TrimSpace(f); f != "" {
						accepted = append(accepted, f)
					}
				}
			}

			out, err := eng.Apply(cmd.Context(), id, accepted)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "id_incidence %d: %s (applied %d, remaining %d)\n",
				out.IDIncidence, out.State, out.AppliedFields, out.RemainingDiffs)
			return nil
		},
	}

	cmd.Flags().StringVar(&fieldsFlag, "fields", "", "Comma-separated field names to confirm")
	cmd.Flags().BoolVar(&all, "all", false, "Confirm every outstanding difference")

	return cmd
}
