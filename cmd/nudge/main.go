package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/chris/nudge/config"
	"github.com/chris/nudge/internal/agent"
	"github.com/chris/nudge/internal/db"
	"github.com/chris/nudge/internal/digest"
	"github.com/chris/nudge/internal/discord"
	"github.com/chris/nudge/internal/health"
	"github.com/chris/nudge/internal/logging"
	"github.com/chris/nudge/internal/pgdb"
	"github.com/chris/nudge/internal/scheduler"
	"github.com/chris/nudge/internal/service"
	"github.com/chris/nudge/internal/tasks"
)

// store is what the bot needs from persistence; sqlite and postgres both provide it.
type store interface {
	tasks.Store
	scheduler.Registry
	Close() error
}

func main() {
	cmd := "run"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "run":
		err = run()
	case "install":
		err = service.Install()
	case "uninstall":
		err = service.Uninstall()
	case "start":
		err = service.Start()
	case "stop":
		err = service.Stop()
	case "restart":
		err = service.Restart()
	case "status":
		err = service.Status()
	case "logs":
		err = service.Logs()
	default:
		fmt.Fprintf(os.Stderr, "usage: nudge [run|install|uninstall|start|stop|restart|status|logs]\n")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "nudge %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	loc := cfg.Location()

	st, err := openStore(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open database")
		return err
	}
	defer st.Close()

	svc := tasks.NewService(st, loc)
	digests := digest.NewBuilder(svc)

	bot, err := discord.NewBot(cfg.DiscordToken, logging.Component(logger, "discord"))
	if err != nil {
		return err
	}

	cr := scheduler.NewCron(loc, logging.Component(logger, "cron"))
	sched := scheduler.New(cr, st, digests, bot, loc, logging.Component(logger, "scheduler"))
	if _, err := sched.Restore(context.Background()); err != nil {
		logger.Error().Err(err).Msg("failed to restore daily digests")
	}

	hs := health.NewServer(cfg.Port, logging.Component(logger, "health"))
	hs.Start()

	ag := agent.New(svc, digests, sched, logging.Component(logger, "agent"))
	if err := bot.Start(ag); err != nil {
		return err
	}
	defer bot.Close()

	cr.Start()
	defer cr.Stop()

	logger.Info().Str("timezone", loc.String()).Msg("bot is running. Press Ctrl+C to exit.")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down.")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shut down health endpoint")
	}
	return nil
}

func openStore(cfg *config.Config) (store, error) {
	if cfg.DatabaseURL != "" {
		pg, err := pgdb.Open(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	sq, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	return sq, nil
}
