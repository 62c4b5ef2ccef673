package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/jobs"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage stored job postings",
}

var jobsImportCmd = &cobra.Command{
	Use:   "import <results.json>",
	Short: "Import job postings from a JSON array of web search results",
	Long: `Import job postings from a JSON array of web search results:

  [{"title": "Backend Engineer at Acme", "href": "https://...", "body": "..."}]

Postings already stored (by URL) and postings without recognisable skills are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return importJobs(cmd.Context(), cmd, args[0])
	},
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored job postings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		e := setup(nil)
		s := e.openStore(ctx)
		defer s.Close()

		list, err := s.Jobs(ctx)
		if err != nil {
			return err
		}
		if list == nil {
			list = []jobs.Job{}
		}
		return printJSON(cmd.OutOrStdout(), list)
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsImportCmd, jobsListCmd)
}

func importJobs(ctx context.Context, cmd *cobra.Command, path string) error {
	e := setup(nil)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	results, err := jobs.ReadResults(f)
	if err != nil {
		return err
	}

	s := e.openStore(ctx)
	defer s.Close()

	list, report, err := jobs.Import(ctx, results, s, e.logger)
	if err != nil {
		return err
	}

	if err := s.SaveJobs(ctx, list); err != nil {
		return err
	}

	e.logger.Info("jobs imported",
		zap.Int("total", report.Total),
		zap.Int("imported", report.Imported),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("no_skills", report.NoSkills),
	)

	return printJSON(cmd.OutOrStdout(), report)
}
