package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"ticketbot/internal/application"
	"ticketbot/internal/bot"
	"ticketbot/internal/config"
	"ticketbot/internal/core"
	"ticketbot/internal/discord"
	"ticketbot/internal/logger"
	"ticketbot/internal/metrics"
	"ticketbot/internal/review"
	"ticketbot/internal/scheduler"
	"ticketbot/internal/server"
	"ticketbot/internal/services"
	"ticketbot/internal/storage"
	"ticketbot/internal/ticket"
	"ticketbot/pkg"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	questionsFile := pflag.String("questions", "", "YAML file overriding the application questions")
	pflag.Parse()

	if err := run(*envFile, *questionsFile); err != nil {
		fmt.Fprintf(os.Stderr, "ticketbot: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile, questionsFile string) error {
	// Load environment variables from the dotenv file, if present
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading %s: %w", envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.InitLogger(cfg.Log); err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}
	defer func() {
		if err := logger.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "ticketbot: closing log file: %v\n", err)
		}
	}()
	log.Info().Str("session_backend", cfg.Session.Backend).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close session store")
		}
	}()

	// Sessions never outlive the process; drop whatever a previous run left
	registry := ticket.NewRegistry(store, logger.Component("registry"))
	if err := registry.Reset(ctx); err != nil {
		return fmt.Errorf("error resetting sessions: %w", err)
	}

	if questionsFile == "" {
		questionsFile = cfg.Application.QuestionsFile
	}
	var overrides map[pkg.RoleType][]string
	if questionsFile != "" {
		if overrides, err = config.LoadQuestions(questionsFile); err != nil {
			return err
		}
		log.Info().Str("file", questionsFile).Int("role_types", len(overrides)).Msg("question overrides loaded")
	}
	questions, err := services.NewQuestionService(overrides)
	if err != nil {
		return err
	}

	client, err := discord.NewClient(cfg.Discord.Token, logger.Component("discord"))
	if err != nil {
		return err
	}

	bus := core.NewMessageBus()

	gate := review.NewGate(client, cfg.Channels.StaffReviewID, cfg.Discord.GuildID, cfg.RoleIDs(), logger.Component("review"))
	gate.OnDecision = func(action pkg.DecisionAction, rt pkg.RoleType, err error) {
		metrics.Decision(string(action), string(rt), err)
	}

	engine := application.NewEngine(client, bus, gate, registry, logger.Component("application"))
	engine.OnFinish = func(rt pkg.RoleType, outcome string) {
		metrics.Application(string(rt), outcome)
	}

	handler := bot.New(bot.Config{
		GuildID:          cfg.Discord.GuildID,
		Roles:            cfg.RoleIDs(),
		WelcomeChannelID: cfg.Channels.WelcomeID,
		WelcomeTitle:     cfg.WelcomeTitle,
	}, bot.Deps{
		Platform:    client,
		Bus:         bus,
		Registry:    registry,
		Provisioner: ticket.NewProvisioner(client, cfg.Channels.TicketCategoryID, cfg.StaffRoleIDs, logger.Component("provisioner")),
		Panel:       ticket.NewPanel(client, cfg.Channels.SupportPanelID, logger.Component("panel")),
		Engine:      engine,
		Gate:        gate,
		Questions:   questions,
	}, logger.Component("bot"))

	dispatcher := core.NewDispatcher(handler, logger.Component("dispatcher"))
	dispatcher.OnHandled = func(kind core.EventKind, elapsed time.Duration, panicked bool) {
		metrics.ObserveEvent(string(kind), elapsed, panicked)
	}
	discord.NewRouter(dispatcher, cfg.Discord.GuildID, logger.Component("router")).Attach(client.Session())

	metrics.RegisterGauges(func() int {
		n, err := registry.Count(context.Background())
		if err != nil {
			return 0
		}
		return n
	}, engine.Active)

	var sweeper *scheduler.Sweeper
	if cfg.Application.IdleTimeout > 0 {
		sweeper, err = scheduler.NewSweeper(cfg.Application.SweepSchedule, cfg.Application.IdleTimeout, engine, logger.Component("sweeper"))
		if err != nil {
			return err
		}
	}

	ops := server.New(cfg.Metrics.Addr, client.Healthy, logger.Component("server"))

	if err := client.Open(); err != nil {
		return err
	}
	if sweeper != nil {
		sweeper.Start()
	}
	log.Info().Str("guild_id", cfg.Discord.GuildID).Msg("ticketbot running")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ops.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(client, sweeper, dispatcher)
	})

	err = g.Wait()
	log.Info().Msg("ticketbot stopped")
	return err
}

func openStore(ctx context.Context, cfg *config.Config) (storage.SessionStore, error) {
	switch cfg.Session.Backend {
	case config.BackendRedis:
		store, err := storage.NewRedisSessionStore(ctx, cfg.Redis.URL, cfg.Session.KeyPrefix)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("using redis session store")
		return store, nil
	default:
		return storage.NewMemorySessionStore(), nil
	}
}

// shutdown stops intake first, then drains the events already queued
func shutdown(client *discord.Client, sweeper *scheduler.Sweeper, dispatcher *core.Dispatcher) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := client.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close discord session: %w", err))
	}
	if sweeper != nil {
		if err := sweeper.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := dispatcher.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain events: %w", err))
	}
	return errors.Join(errs...)
}
