package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/comment"
	commentrepo "github.com/ovaphlow/pitchfork/service-ideas-go/internal/comment/repo"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/feedback"
	feedbackrepo "github.com/ovaphlow/pitchfork/service-ideas-go/internal/feedback/repo"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/idea"
	idearepo "github.com/ovaphlow/pitchfork/service-ideas-go/internal/idea/repo"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/migrate"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/observability"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/schema"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-ideas-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// init logger
	lg, err := utilities.Init(cfg.LoggerConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting service-ideas-go", "addr", cfg.Addr())

	if err := utilities.SetSnowflakeNode(cfg.SnowflakeNode); err != nil {
		sugar.Fatalf("snowflake node: %v", err)
	}

	// init db
	db, err := database.Connect(cfg.DatabaseConfig())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		runner, err := migrate.NewRunner(db, sugar, nil)
		if err != nil {
			sugar.Fatalf("migrations: %v", err)
		}
		n, err := runner.Up(ctx)
		if err != nil {
			sugar.Fatalf("migrate up: %v", err)
		}
		sugar.Infow("migrations complete", "applied", n)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.RegisterRoutes(buildDeps(cfg, db, sugar)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	sugar.Info("service is running; press Ctrl+C to stop")

	<-ctx.Done()

	sugar.Info("shutting down")

	// give in-flight requests a grace period
	doneCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}

func buildDeps(cfg *config.Config, db *sqlx.DB, sugar *zap.SugaredLogger) router.Deps {
	users := userrepo.NewUserRepo(db)
	ideas := idearepo.NewIdeaRepo(db)
	comments := commentrepo.NewCommentRepo(db)
	feedbacks := feedbackrepo.NewFeedbackRepo(db)

	issuer := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.Expiry)

	ideaSvc := idea.NewService(ideas)
	ideaSvc.RequireOwnerOnUpdate = cfg.IdeaUpdateRequireOwner

	d := router.Deps{
		Logger: sugar,
		DBTime: func(ctx context.Context) (time.Time, error) {
			return database.Now(ctx, db)
		},
		Issuer:      issuer,
		Users:       users,
		User:        user.NewHandler(user.NewUserService(users, user.BcryptHasher{Cost: cfg.BcryptCost}, issuer), sugar),
		Idea:        idea.NewHandler(ideaSvc, sugar),
		Comment:     comment.NewHandler(comment.NewService(comments, ideas), sugar),
		Feedback:    feedback.NewHandler(feedback.NewService(feedbacks), sugar),
		Metrics:     observability.NewMetrics(),
		CORSOrigins: cfg.CORSOrigins,
	}
	if cfg.SchemaEndpoints {
		sugar.Warn("schema bootstrap endpoints are enabled; they drop tables without authentication")
		d.Schema = schema.NewHandler(schema.NewRepo(db), sugar)
	}
	return d
}
