package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/aryannaik/embedding-compare/internal/compare"
	"github.com/aryannaik/embedding-compare/internal/config"
	"github.com/aryannaik/embedding-compare/internal/embeddings"
	"github.com/aryannaik/embedding-compare/internal/keystore"
	"github.com/aryannaik/embedding-compare/internal/logging"
	"github.com/aryannaik/embedding-compare/internal/observability"
	"github.com/aryannaik/embedding-compare/internal/server"
)

type targetList []string

func (t *targetList) String() string { return fmt.Sprint(*t) }

func (t *targetList) Set(v string) error {
	*t = append(*t, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run returns the process exit code so deferred cleanup runs before exit.
func run(args []string, stdout io.Writer) int {
	var targets targetList
	fs := flag.NewFlagSet("embedding-compare", flag.ContinueOnError)
	baseFlag := fs.String("base", "", "Compare this text against -target texts once and exit (don't start server)")
	keyFlag := fs.String("api-key", "", "API key for one-shot mode (defaults to the cached key)")
	fs.Var(&targets, "target", "Target text for one-shot mode (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return 1
	}
	defer logger.Sync()

	ctx := context.Background()

	keys, err := keystore.Open(ctx, cfg.KeystoreOptions())
	if err != nil {
		logger.Error("open keystore", zap.String("backend", cfg.KeystoreBackend), zap.Error(err))
		return 1
	}
	defer keys.Close()

	embedClient := embeddings.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingModel, cfg.EmbeddingTimeout)
	metrics := observability.NewMetrics()
	session := compare.NewSession(embedClient, keys,
		compare.WithLogger(logger),
		compare.WithMetrics(metrics),
	)

	if _, err := session.LoadKey(ctx); err != nil {
		logger.Warn("could not load cached api key", zap.Error(err))
	}

	if *baseFlag != "" {
		apiKey := *keyFlag
		if apiKey == "" {
			apiKey = session.APIKey()
		}
		if err := runOnce(ctx, stdout, session, compare.Form{APIKey: apiKey, Base: *baseFlag, Targets: targets}); err != nil {
			logger.Error("comparison failed", zap.Error(err))
			return 1
		}
		return 0
	}

	srv, err := server.New(server.Options{
		Host:      cfg.Host,
		Port:      cfg.Port,
		StaticDir: cfg.StaticDir,
		Session:   session,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("create server", zap.Error(err))
		return 1
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server listening",
			zap.String("addr", "http://"+srv.Addr),
			zap.String("model", embedClient.Model()),
			zap.String("keystore", cfg.KeystoreBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			done <- syscall.SIGTERM
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
		return 1
	}
	return 0
}

// runOnce submits a single comparison and prints the similarity table.
func runOnce(ctx context.Context, out io.Writer, session *compare.Session, form compare.Form) error {
	snap, err := session.Submit(ctx, form)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "BASE\tTARGET\tSIMILARITY\n")
	for _, row := range snap.Rows {
		score := "n/a"
		if row.Computable {
			score = fmt.Sprintf("%.6f", row.Similarity)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Base.Text, row.Target.Text, score)
	}
	fmt.Fprintf(tw, "\ntotal tokens: %d\n", snap.TotalTokens)
	return tw.Flush()
}
