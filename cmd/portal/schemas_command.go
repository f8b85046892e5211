package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newSchemasCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List loaded schema versions and aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.ensureCatalog()
			if err != nil {
				return err
			}

			var rows [][]string
			for _, id := range cat.Versions() {
				v, err := cat.Resolve(id)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					id,
					strconv.Itoa(v.Len()),
					v.Metadata["sector"],
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Version", "Fields", "Sector"}, rows, 2))

			aliases := cat.Aliases()
			if len(aliases) == 0 {
				return nil
			}
			aliasRows := make([][]string, 0, len(aliases))
			for _, id := range sortedKeys(aliases) {
				aliasRows = append(aliasRows, []string{id, aliases[id]})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Alias", "Resolves To"}, aliasRows))
			return nil
		},
	}
	return cmd
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
