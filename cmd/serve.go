package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/assist"
	"github.com/spigell/careeros/internal/feedback"
	"github.com/spigell/careeros/internal/matching"
	"github.com/spigell/careeros/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the CareerOS HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default :8080)")
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := setup(prometheus.DefaultRegisterer)
	e.logger.Info("starting the careeros server", zap.String("version", version))

	s := e.openStore(ctx)
	defer s.Close()

	index, err := matching.NewIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	gw := e.gateway(ctx)

	srv := server.New(server.Deps{
		Roadmap:   e.roadmapService(gw),
		Assistant: assist.New(gw, e.logger, e.config.AI.MaxLogLength, e.recorder),
		Profiles:  s,
		Matches:   matching.New(s, index, matchingOptions(e.config.Matching, false), e.logger),
		Feedback:  feedback.New(s, e.logger),
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    e.logger,
	})

	return srv.Run(ctx, *e.config.Server)
}

func matchingOptions(cfg *MatchingConfig, includeApplied bool) matching.Options {
	return matching.Options{
		Limit:            cfg.Limit,
		MinScore:         cfg.MinScore,
		ExcludeCompanies: cfg.ExcludeCompanies,
		ExcludeFile:      cfg.ExcludeFile,
		IncludeApplied:   includeApplied,
	}
}
