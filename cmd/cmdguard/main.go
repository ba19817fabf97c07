package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/cmdguard/internal/config"
	"github.com/xxxsen/cmdguard/internal/filestore"
	"github.com/xxxsen/cmdguard/internal/handler"
	"github.com/xxxsen/cmdguard/internal/middleware"
	"github.com/xxxsen/cmdguard/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "cmdguard",
		Short:         "classify windows command lines as malicious or benign",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run cmdguard http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(configPath)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), app)
		},
	}

	predictCmd := &cobra.Command{
		Use:   "predict [command line]",
		Short: "classify one command line",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(configPath)
			if err != nil {
				return err
			}
			res, err := app.prediction.Classify(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printPrediction(cmd.OutOrStdout(), res)
			return nil
		},
	}

	var (
		topN  int
		label string
	)
	insightsCmd := &cobra.Command{
		Use:   "insights",
		Short: "print the most common words per label",
		RunE: func(cmd *cobra.Command, args []string) error {
			only, err := parseLabelFlag(label)
			if err != nil {
				return err
			}
			app, err := setup(configPath)
			if err != nil {
				return err
			}
			if only != nil {
				counts, err := app.insights.TopTokens(cmd.Context(), *only, topN)
				if err != nil {
					return err
				}
				printRanking(cmd.OutOrStdout(), rankingTitle(*only), counts)
				return nil
			}
			report, err := app.insights.Insights(cmd.Context(), topN)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	insightsCmd.Flags().IntVar(&topN, "top", 0, "number of words per label (default from config)")
	insightsCmd.Flags().StringVar(&label, "label", "", "only rank one label: malicious or benign")

	rootCmd.AddCommand(runCmd, predictCmd, insightsCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logutil.GetLogger(context.Background()).Error("cmdguard failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type application struct {
	cfg        *config.Config
	prediction *service.PredictionService
	insights   *service.InsightService
}

func setup(configPath string) (*application, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	store, err := filestore.New(cfg.ArtifactStore)
	if err != nil {
		return nil, fmt.Errorf("init artifact store: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("artifact store ready", zap.String("type", store.Type()))
	return &application{
		cfg:        cfg,
		prediction: service.NewPredictionServiceFromConfig(cfg, store),
		insights:   service.NewInsightServiceFromConfig(cfg, store),
	}, nil
}

func runServer(ctx context.Context, a *application) error {
	cfg := a.cfg
	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("artifact_store", cfg.ArtifactStore.Type),
		zap.Strings("cors_allowlist", cfg.CORSAllowlist),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("classifier", cfg.Classifier.Path),
		zap.String("dataset", cfg.Dataset.Path),
	)
	if cfg.EagerLoad {
		if err := a.prediction.Warmup(ctx); err != nil {
			return fmt.Errorf("load prediction models: %w", err)
		}
	}

	deps := handler.RouterDeps{
		Predict:      handler.NewPredictHandler(a.prediction),
		Insights:     handler.NewInsightHandler(a.insights),
		Pages:        handler.NewPageHandler(a.prediction, a.insights),
		PredictLimit: middleware.RateLimit(time.Duration(cfg.RateLimitMS)*time.Millisecond, 0),
	}
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
