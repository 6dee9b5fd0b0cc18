package cli

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"party-quiz-service/internal/app"
	"party-quiz-service/internal/config"
	"party-quiz-service/internal/infra/bundle"
	"party-quiz-service/internal/infra/generator"
	"party-quiz-service/internal/infra/memory"
	pgstore "party-quiz-service/internal/infra/postgres"
	redisstore "party-quiz-service/internal/infra/redis"
	transport "party-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), flags)
		},
	}
}

func runServer(ctx context.Context, flags *Flags) error {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	bind := firstNonEmpty(flags.Bind, cfg.Server.Bind, "0.0.0.0")
	port := firstNonEmpty(flags.Port, cfg.Server.Port, "8080")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var questions app.QuestionSetStore
	var games app.GameRepository
	if redisClient != nil {
		questions = redisstore.NewQuestionSetStore(redisClient, redisTTL)
		games = redisstore.NewGameStore(redisClient, redisTTL)
	} else {
		questions = memory.NewQuestionSetStore()
		games = memory.NewGameStore()
	}

	sources := []app.QuestionSource{app.NewSessionSource(questions)}
	if pool != nil && cfg.Questions.BankSet != "" {
		loader := pgstore.NewQuestionLoader(pool)
		bankTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
		var bank app.QuestionBank
		if redisClient != nil {
			bank = redisstore.NewQuestionBank(redisClient, loader, bankTTL)
		} else {
			bank = memory.NewQuestionBank(loader, bankTTL)
		}
		sources = append(sources, app.NewBankSource(bank, cfg.Questions.BankSet))
	}
	sources = append(sources, bundle.NewSource())

	service := app.NewGameService(ctx, games, app.NewResolver(sources...), questions, gameSettings(cfg))
	gen := generator.New(cfg.Generator.Endpoint, cfg.Generator.Model, cfg.Generator.APIKey)
	router := transport.NewRouter(service, gen, transport.Options{
		BaseURL: cfg.Server.BaseURL,
		Verbose: flags.Verbose,
	})

	idle := config.TTLDuration(cfg.Game.IdleTimeout, time.Hour)
	reapCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go reapIdleGames(reapCtx, service, idle)

	server := &http.Server{
		Addr:              net.JoinHostPort(bind, port),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// reapIdleGames closes games nobody touched for idle.
func reapIdleGames(ctx context.Context, service *app.GameService, idle time.Duration) {
	interval := idle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := service.ReapIdle(now.Add(-idle)); n > 0 {
				log.Printf("reaped %d idle games", n)
			}
		}
	}
}

func gameSettings(cfg config.Config) app.Settings {
	def := app.DefaultSettings()
	s := app.Settings{
		WinThreshold: config.IntOr(cfg.Game.WinThreshold, def.WinThreshold),
		Increment:    config.IntOr(cfg.Game.Increment, def.Increment),
		MaxRounds:    config.IntOr(cfg.Game.MaxRounds, def.MaxRounds),
		RevealDelay:  config.TTLDuration(cfg.Game.RevealDelay, def.RevealDelay),
		RoundTime:    config.TTLDuration(cfg.Game.RoundTime, def.RoundTime),
		TickStep:     config.TTLDuration(cfg.Game.TickStep, def.TickStep),
		MaxPlayers:   config.IntOr(cfg.Game.MaxPlayers, def.MaxPlayers),
		FinishPolicy: def.FinishPolicy,
		Assignment:   def.Assignment,
	}
	if app.FinishPolicy(cfg.Game.FinishPolicy) == app.FinishAll {
		s.FinishPolicy = app.FinishAll
	}
	if app.AssignmentMode(cfg.Game.Assignment) == app.AssignShared {
		s.Assignment = app.AssignShared
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
