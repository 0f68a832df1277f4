package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"mission-engine/internal/app"
	"mission-engine/internal/config"
	"mission-engine/internal/infra/memory"
	pgstore "mission-engine/internal/infra/postgres"
	redisstore "mission-engine/internal/infra/redis"
	"mission-engine/internal/manifest"
	"mission-engine/internal/obfuscate"
	"mission-engine/internal/render"
	transport "mission-engine/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the mission engine server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	passphrase := cfg.Obfuscation.Passphrase
	if passphrase == "" {
		return fmt.Errorf("obfuscation passphrase not configured")
	}
	codec, err := obfuscate.NewCodec(passphrase)
	if err != nil {
		return err
	}

	var store app.ProgressionStore = memory.NewProgressionStore()
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewProgressionStore(pool)
	case cfg.Redis.Addr != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = redisstore.NewProgressionStore(client, config.TTLDuration(cfg.Redis.TTL, 0))
	}

	missionsDir := cfg.Missions.Dir
	if missionsDir == "" {
		missionsDir = "missions"
	}
	manifestTTL := config.TTLDuration(cfg.Missions.ManifestTTL, 10*time.Minute)
	manifests := memory.NewManifestCache(manifest.NewDirLoader(missionsDir), manifestTTL)

	registry := app.NewRegistry()
	registerSampleMissions(registry, store, manifests, codec, missionsDir)

	wsHandler := transport.NewWSHandler(registry)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting mission engine on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// registerSampleMissions installs a demo quiz; real deployments register
// author-supplied factories here instead.
func registerSampleMissions(registry *app.Registry, store app.ProgressionStore, manifests manifest.Loader, codec *obfuscate.Codec, missionsDir string) {
	const missionID = "general-knowledge"
	renderer := render.NewTemplateRenderer(filepath.Join(missionsDir, missionID))

	registry.Register(missionID, func(ctx context.Context, userID string) (*app.QuizMission, error) {
		core := app.NewMission(userID, missionID, store, manifests, renderer)
		quiz := app.NewQuizMission(core, codec)
		for _, q := range sampleQuestions() {
			quiz.AddQuestion(q)
		}
		if err := quiz.Sync(ctx); err != nil {
			return nil, err
		}
		return quiz, nil
	})
}

func sampleQuestions() []app.QuestionFunc {
	static := func(label string, solutions, answers []string) app.QuestionFunc {
		return func(context.Context) (app.QuestionContent, error) {
			return app.QuestionContent{
				Label:     label,
				Solutions: solutions,
				Answers:   answers,
			}, nil
		}
	}
	return []app.QuestionFunc{
		static("What is the capital of France?",
			[]string{"Paris"},
			[]string{"Marseille", "Paris", "Lyon", "Lille"}),
		static("Which of these are French cities?",
			[]string{"Paris", "Lyon"},
			[]string{"Lyon", "Geneva", "Paris", "Brussels"}),
		static("How many continents are there?",
			[]string{"7"},
			[]string{"5", "6", "7", "8"}),
	}
}
