package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/spigell/careeros/internal/assist"
)

var postMortemCmd = &cobra.Command{
	Use:   "post-mortem",
	Short: "Explain a job rejection and how to fix it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		description, err := jobDescription(cmd)
		if err != nil {
			return err
		}
		skills, _ := cmd.Flags().GetStringSlice("skills")

		a := newAssistant(cmd)
		res, err := a.PostMortem(cmd.Context(), assist.PostMortemRequest{
			JobTitle:        flagString(cmd, "job-title"),
			JobDescription:  description,
			UserSkills:      skills,
			RejectionReason: flagString(cmd, "reason"),
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Write résumé bullets aimed at a job description",
	RunE: func(cmd *cobra.Command, _ []string) error {
		description, err := jobDescription(cmd)
		if err != nil {
			return err
		}
		skills, _ := cmd.Flags().GetStringSlice("skills")

		a := newAssistant(cmd)
		res, err := a.Tailor(cmd.Context(), assist.TailorRequest{
			UserSkills:     skills,
			JobDescription: description,
			JobTitle:       flagString(cmd, "job-title"),
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit <resume.txt|->",
	Short: "Score a résumé the way an applicant tracking system would",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resume, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		description, err := jobDescription(cmd)
		if err != nil {
			return err
		}

		a := newAssistant(cmd)
		res, err := a.Audit(cmd.Context(), assist.AuditRequest{
			ResumeText:     resume,
			JobDescription: description,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	rootCmd.AddCommand(postMortemCmd, tailorCmd, auditCmd)

	for _, c := range []*cobra.Command{postMortemCmd, tailorCmd, auditCmd} {
		c.Flags().String("job-description", "", "job description text")
		c.Flags().String("job-description-file", "", "read the job description from a file")
	}
	for _, c := range []*cobra.Command{postMortemCmd, tailorCmd} {
		c.Flags().String("job-title", "", "job title")
		c.Flags().StringSlice("skills", nil, "skills of the user")
	}
	postMortemCmd.Flags().StringP("reason", "r", "", "rejection reason, if one was given")
}

func newAssistant(cmd *cobra.Command) *assist.Assistant {
	e := setup(nil)
	return assist.New(e.gateway(cmd.Context()), e.logger, e.config.AI.MaxLogLength, e.recorder)
}

func jobDescription(cmd *cobra.Command) (string, error) {
	if path := flagString(cmd, "job-description-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return flagString(cmd, "job-description"), nil
}
