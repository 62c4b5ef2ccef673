package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile <resume.txt|->",
	Short: "Build a profile from a plain-text résumé and store it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return createProfile(cmd.Context(), cmd, args[0])
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <profile-id>",
	Short: "Print a stored profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e := setup(nil)
		s := e.openStore(ctx)
		defer s.Close()

		p, err := s.Profile(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), p)
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd)
}

func createProfile(ctx context.Context, cmd *cobra.Command, path string) error {
	e := setup(nil)

	text, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	p, err := profile.Build(text)
	if err != nil {
		return err
	}

	s := e.openStore(ctx)
	defer s.Close()

	if err := s.SaveProfile(ctx, p); err != nil {
		return err
	}

	e.logger.Info("profile stored",
		zap.String("profile_id", p.ID),
		zap.String("name", p.Name),
		zap.Strings("skills", p.HardSkills),
	)

	return printJSON(cmd.OutOrStdout(), map[string]any{"profile_id": p.ID, "data": p})
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
