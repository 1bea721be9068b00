package main

import (
	"fmt"
	"os"
	"sync"
	"text/tabwriter"

	"lifesim/internal/catalog"
	"lifesim/internal/config"
	"lifesim/internal/game"
	"lifesim/internal/logging"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
)

func main() {
	cfg, err := config.LoadSimFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:          "lifesim-sim",
		Short:        "Run headless lifesim sessions with scripted players",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}
	f := root.Flags()
	f.IntVar(&cfg.Sessions, "sessions", cfg.Sessions, "sessions to run in parallel")
	f.IntVar(&cfg.Players, "players", cfg.Players, "bots per session")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed (0 = time based)")
	f.IntVar(&cfg.Game.MaxDays, "days", cfg.Game.MaxDays, "days per session")
	f.StringVar(&cfg.Game.CatalogPath, "catalog", cfg.Game.CatalogPath, "catalog YAML override")
	f.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug, info, warn or error")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type sessionRun struct {
	id       string
	bots     map[string]Strategy
	result   *game.TurnResult
	err      error
	lastDay  int
	finished bool
}

func run(cfg config.SimConfig) error {
	if cfg.Sessions <= 0 || cfg.Players <= 0 {
		return fmt.Errorf("sessions and players must be positive")
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cat, err := catalog.Load(cfg.Game.CatalogPath)
	if err != nil {
		return err
	}
	rules, err := cfg.Game.Rules()
	if err != nil {
		return err
	}
	if cfg.Players > rules.MaxPlayers {
		rules.MaxPlayers = cfg.Players
	}
	engine, err := game.NewEngine(cat, rules, logger.Named("engine"),
		game.WithRandomSource(game.NewRandomSource(cfg.Seed)),
		game.WithMaxSessions(cfg.Sessions))
	if err != nil {
		return err
	}

	runs := make([]*sessionRun, cfg.Sessions)
	var wg sync.WaitGroup
	for i := range runs {
		r := &sessionRun{id: uuid.NewString(), bots: make(map[string]Strategy, cfg.Players)}
		runs[i] = r
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.err = playSession(engine, r, cfg.Players)
			if r.err != nil {
				logger.Error("session failed", zap.String("session_id", r.id), zap.Error(r.err))
			}
		}()
	}
	wg.Wait()

	for _, r := range runs {
		printSession(r)
	}
	return nil
}

func playSession(e *game.Engine, r *sessionRun, players int) error {
	seeds := make([]game.PlayerSeed, 0, players)
	for i := 0; i < players; i++ {
		strat := strategyFor(i)
		id := fmt.Sprintf("bot-%d", i+1)
		r.bots[id] = strat
		seeds = append(seeds, game.PlayerSeed{ID: id, Username: fmt.Sprintf("%s-%d", strat.Name(), i+1)})
	}
	if _, err := e.CreateSession(r.id, seeds); err != nil {
		return err
	}
	defer e.DeleteSession(r.id)
	if err := e.StartSession(r.id); err != nil {
		return err
	}

	for {
		snap, err := e.GetSession(r.id)
		if err != nil {
			return err
		}
		for _, p := range snap.Players {
			if !p.Alive {
				continue
			}
			kind := r.bots[p.ID].Play(e, r.id, p)
			if _, err := e.SubmitAction(r.id, p.ID, kind); err != nil {
				return err
			}
		}
		res, err := e.ProcessDay(r.id, snap.Day)
		if err != nil {
			return err
		}
		r.lastDay = res.Day
		if res.GameOver {
			r.result = res
			r.finished = true
			return nil
		}
	}
}

func printSession(r *sessionRun) {
	accent.Printf("\n== SESSION %s ==\n", r.id)
	if r.err != nil {
		danger.Printf("failed on day %d: %v\n", r.lastDay, r.err)
		return
	}
	if !r.finished || r.result == nil {
		danger.Println("session did not finish")
		return
	}
	fmt.Printf("Ended after day %d (economy: %s)\n\n", r.result.Day, r.result.Economy)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tSTRATEGY\tSCORE\tMONEY\tSTATUS\tPRIZE")
	for _, rk := range r.result.Rankings {
		status := success.Sprint("alive")
		if !rk.Alive {
			status = danger.Sprint("defeated")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%d\n",
			rk.Rank, rk.Username, r.bots[rk.PlayerID].Name(), rk.Score, rk.Stats.Money.StringFixed(2), status, rk.Prize)
	}
	_ = tw.Flush()
}
