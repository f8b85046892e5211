package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newArtifactsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Inspect staged review artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newArtifactsListCommand(ctx))
	cmd.AddCommand(newArtifactsShowCommand(ctx))
	cmd.AddCommand(newArtifactsRmCommand(ctx))
	return cmd
}

func newArtifactsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staged artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arts, err := ctx.ensureArtifacts()
			if err != nil {
				return err
			}
			ids, err := arts.List()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no staged artifacts")
				return nil
			}

			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				a, err := arts.Load(id)
				if err != nil {
					return err
				}
				if a == nil {
					continue
				}
				rows = append(rows, []string{
					strconv.FormatInt(a.IDIncidence, 10),
					a.Sector,
					strconv.Itoa(len(a.Fields)),
					strconv.Itoa(len(a.ConfirmedFields)),
					a.CapturedAt.Format("2006-01-02 15:04:05"),
					a.SourceFilename,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Sector", "Fields", "Confirmed", "Captured", "Source"},
				rows, 1, 3, 4))
			return nil
		},
	}
}

func newArtifactsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id_incidence>",
		Short: "Print one staged artifact as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("id_incidence must be an integer: %q", args[0])
			}
			arts, err := ctx.ensureArtifacts()
			if err != nil {
				return err
			}
			a, err := arts.Load(id)
			if err != nil {
				return err
			}
			if a == nil {
				return fmt.Errorf("no staged artifact for id_incidence %d", id)
			}
			out, err := json.MarshalIndent(a, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newArtifactsRmCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id_incidence>",
		Short: "Remove a staged artifact without applying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("id_incidence must be an integer: %q", args[0])
			}
			arts, err := ctx.ensureArtifacts()
			if err != nil {
				return err
			}
			if err := arts.Remove(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed artifact for id_incidence %d\n", id)
			return nil
		},
	}
}
