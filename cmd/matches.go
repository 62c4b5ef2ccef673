package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/careeros/internal/matching"
)

var matchesCmd = &cobra.Command{
	Use:   "matches <profile-id>",
	Short: "Rank stored jobs against a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e := setup(nil)

		s := e.openStore(ctx)
		defer s.Close()

		index, err := matching.NewIndex()
		if err != nil {
			return err
		}
		defer index.Close()

		includeApplied, _ := cmd.Flags().GetBool("include-applied")
		m := matching.New(s, index, matchingOptions(e.config.Matching, includeApplied), e.logger)

		if status, _ := cmd.Flags().GetBool("filters"); status {
			return printJSON(cmd.OutOrStdout(), matching.Describe(m.Pipeline(args[0])))
		}

		found, err := m.Find(ctx, args[0])
		if err != nil {
			return err
		}
		if found == nil {
			found = []matching.Match{}
		}

		return printJSON(cmd.OutOrStdout(), map[string]any{"matches": found})
	},
}

func init() {
	rootCmd.AddCommand(matchesCmd)

	matchesCmd.Flags().BoolP("include-applied", "f", false, "do not exclude jobs with an application outcome")
	matchesCmd.Flags().Bool("filters", false, "print the filter pipeline instead of matches")
	matchesCmd.Flags().Float64("min-score", 0, "drop matches scoring below this value (0..100)")
	matchesCmd.Flags().Int("limit", 0, "maximum number of matches")
	matchesCmd.Flags().StringP("exclude-file", "e", "", "file with job ids or urls to exclude, one per line")

	viper.BindPFlag("matching.min-score", matchesCmd.Flags().Lookup("min-score"))
	viper.BindPFlag("matching.limit", matchesCmd.Flags().Lookup("limit"))
	viper.BindPFlag("matching.exclude-file", matchesCmd.Flags().Lookup("exclude-file"))
}
