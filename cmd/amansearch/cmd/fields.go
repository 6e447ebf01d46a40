package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amansearch/internal/output"
)

func newFieldsCmd(flags *rootFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "fields <searcher>",
		Short: "List the searchable fields of a searcher",
		Long: `List the field names a searcher's indexes hold, excluding the id and
classification fields. For a multi-index searcher this is the union.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			s, err := a.registry.ResolveSearcher(args[0])
			if err != nil {
				return err
			}
			names, err := s.FieldNames(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				if names == nil {
					names = []string{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(names)
			}
			output.New(cmd.OutOrStdout()).Fields(names)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
