package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spigell/careeros/internal/feedback"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <profile-id> <job-id> <outcome>",
	Short: "Record the outcome of a job application",
	Example: `  careeros feedback 4f1c... 9a2b... applied
  careeros feedback 4f1c... 9a2b... rejected --reason "no Kubernetes experience"`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e := setup(nil)

		s := e.openStore(ctx)
		defer s.Close()

		res, err := feedback.New(s, e.logger).Process(ctx, feedback.Request{
			ProfileID: args[0],
			JobID:     args[1],
			Outcome:   args[2],
			Reason:    flagString(cmd, "reason"),
		})
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)

	feedbackCmd.Flags().StringP("reason", "r", "", "reason given for the outcome")
}
