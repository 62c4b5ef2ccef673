package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/careeros/internal/roadmap"
)

var roadmapCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Generate a reviewed learning roadmap for a target job",
	Example: `  careeros roadmap --skills Python,Docker --job-title "Backend Engineer" --job-skills "Python, Docker, Kubernetes, AWS"
  careeros roadmap --profile 4f1c... --job-title "SRE" --job-skills-file jd.txt --output yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runRoadmap(cmd.Context(), cmd)
	},
}

func init() {
	rootCmd.AddCommand(roadmapCmd)

	roadmapCmd.Flags().StringSlice("skills", nil, "skills the user already has")
	roadmapCmd.Flags().String("profile", "", "take skills from a stored profile")
	roadmapCmd.Flags().String("job-title", "", "target job title")
	roadmapCmd.Flags().String("job-skills", "", "target job requirements as free text")
	roadmapCmd.Flags().String("job-skills-file", "", "read target job requirements from a file")
	roadmapCmd.Flags().StringP("output", "o", "json", "output format: json or yaml")
	roadmapCmd.Flags().Bool("trace", false, "print the full workflow state and trace instead of the roadmap")
	roadmapCmd.Flags().Int("max-revisions", 0, "how many times a rejected draft may be revised")

	viper.BindPFlag("roadmap.max-revisions", roadmapCmd.Flags().Lookup("max-revisions"))
}

func runRoadmap(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	e := setup(nil)

	req, err := roadmapRequest(ctx, cmd, e)
	if err != nil {
		return err
	}

	svc := e.roadmapService(e.gateway(ctx))

	result, err := svc.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, roadmap.ErrValidation) {
			return err
		}
		e.logger.Error("roadmap generation failed", zap.Error(err))
		_ = printOutput(cmd.OutOrStdout(), flagString(cmd, "output"), roadmap.Payload{Error: err.Error()})
		return err
	}

	for _, step := range result.Fallbacks() {
		e.logger.Warn("agent answered with a default",
			zap.String("agent", step.Outcome.Agent),
			zap.String("cause", string(step.Outcome.Cause)),
			zap.Int("iteration", step.Iteration),
		)
	}

	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		return printOutput(cmd.OutOrStdout(), flagString(cmd, "output"), result)
	}

	rm := result.State.Roadmap
	return printOutput(cmd.OutOrStdout(), flagString(cmd, "output"), roadmap.Payload{Roadmap: &rm})
}

func roadmapRequest(ctx context.Context, cmd *cobra.Command, e *env) (roadmap.Request, error) {
	skills, _ := cmd.Flags().GetStringSlice("skills")
	req := roadmap.Request{
		UserSkills:      skills,
		JobTitle:        flagString(cmd, "job-title"),
		JobRequirements: flagString(cmd, "job-skills"),
	}

	if path := flagString(cmd, "job-skills-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return req, fmt.Errorf("read job requirements: %w", err)
		}
		req.JobRequirements = string(data)
	}

	if id := flagString(cmd, "profile"); id != "" {
		s := e.openStore(ctx)
		defer s.Close()

		p, err := s.Profile(ctx, id)
		if err != nil {
			return req, err
		}
		req.UserSkills = append(req.UserSkills, p.HardSkills...)
	}

	return req, nil
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return strings.TrimSpace(v)
}

// printOutput writes v as indented JSON or, for "yaml", as YAML.
func printOutput(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "", "json":
		return printJSON(w, v)
	case "yaml", "yml":
		if p, ok := v.(roadmap.Payload); ok {
			v = yamlPayload(p)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// yamlPayload mirrors Payload.MarshalJSON for the YAML encoder.
func yamlPayload(p roadmap.Payload) any {
	if p.Error != "" {
		return map[string]string{"error": p.Error}
	}

	out := map[string]any{"nodes": []roadmap.Node{}, "edges": []roadmap.Edge{}}
	if p.Roadmap != nil {
		if p.Roadmap.Nodes != nil {
			out["nodes"] = p.Roadmap.Nodes
		}
		if p.Roadmap.Edges != nil {
			out["edges"] = p.Roadmap.Edges
		}
	}
	return out
}
