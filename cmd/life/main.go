package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	cl "lifesim/internal/cli"
	"lifesim/internal/config"
	"lifesim/internal/game"
	"lifesim/internal/syncq"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "life",
		Short:        "lifesim player client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newSessionsCmd(&apiBase),
		newCreateCmd(&apiBase),
		newJoinCmd(&apiBase),
		newUseCmd(),
		newLeaveCmd(),
		newStartCmd(&apiBase),
		newTurnCmd(&apiBase),
		newStatusCmd(&apiBase),
		newMarketCmd(&apiBase),
		newActCmd(&apiBase),
		newSyncCmd(&apiBase),
		newTradeCmd(&apiBase, game.SideBuy),
		newTradeCmd(&apiBase, game.SideSell),
		newBankCmd(&apiBase, "deposit"),
		newBankCmd(&apiBase, "withdraw"),
		newCareerCmd(&apiBase),
		newLifestyleCmd(&apiBase),
		newWatchCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newSessionsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List live sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			list, err := newClient(apiBase).ListSessions(ctx)
			if err != nil {
				return err
			}
			renderSessions(list)
			return nil
		},
	}
}

func newCreateCmd(apiBase *string) *cobra.Command {
	var (
		id      string
		players []string
		start   bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session; the first --player becomes you",
		RunE: func(cmd *cobra.Command, args []string) error {
			seeds := make([]game.PlayerSeed, 0, len(players))
			for _, p := range players {
				seeds = append(seeds, parseSeed(p))
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			snap, err := newClient(apiBase).CreateSession(ctx, id, seeds, start)
			if err != nil {
				return err
			}
			if len(seeds) > 0 {
				if err := cl.SaveState(cl.State{SessionID: snap.ID, PlayerID: seeds[0].ID, Username: seeds[0].Username}); err != nil {
					return err
				}
			}
			printSuccess(fmt.Sprintf("Session %s created (%s).", snap.ID, snap.Status))
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "session id (generated when empty)")
	cmd.Flags().StringArrayVar(&players, "player", nil, "player as id or id:username (repeatable)")
	cmd.Flags().BoolVar(&start, "start", false, "start the session right away")
	return cmd
}

func newJoinCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "join <session> <player[:username]>",
		Short: "Join a waiting session and make it current",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := parseSeed(args[1])
			ctx, cancel := requestContext(cmd)
			defer cancel()
			p, err := newClient(apiBase).Join(ctx, args[0], seed)
			if err != nil {
				return err
			}
			if err := cl.SaveState(cl.State{SessionID: args[0], PlayerID: p.ID, Username: p.Username}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Joined %s as %s.", args[0], p.Username))
			return nil
		},
	}
}

func newUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <session> <player>",
		Short: "Switch the current session and player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.SaveState(cl.State{SessionID: args[0], PlayerID: args[1]}); err != nil {
				return err
			}
			printSuccess("Current session saved.")
			return nil
		},
	}
}

func newLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave",
		Short: "Forget the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearState(); err != nil {
				return err
			}
			printSuccess("Current session cleared.")
			return nil
		},
	}
}

func newStartCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cl.LoadState()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			snap, err := newClient(apiBase).Start(ctx, st.SessionID)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Session %s is %s on day %d.", snap.ID, snap.Status, snap.Day))
			return nil
		},
	}
}

func newTurnCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "turn",
		Short: "Process the current day now",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cl.LoadState()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			res, err := newClient(apiBase).ProcessTurn(ctx, st.SessionID)
			if err != nil {
				return err
			}
			renderTurn(res, st.PlayerID)
			return nil
		},
	}
}

func newStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show your stats, accounts and holdings",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cl.LoadState()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			snap, err := client.Session(ctx, st.SessionID)
			if err != nil {
				return err
			}
			p, err := client.Player(ctx, st.SessionID, st.PlayerID)
			if err != nil {
				return err
			}
			renderStatus(snap, p)
			return nil
		},
	}
}

func newMarketCmd(apiBase *string) *cobra.Command {
	var class string
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Show prices in the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cl.LoadState()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			market, err := newClient(apiBase).Market(ctx, st.SessionID)
			if err != nil {
				return err
			}
			renderMarket(market, game.AssetClass(strings.ToLower(class)))
			return nil
		},
	}
	cmd.Flags().StringVar(&class, "class", "", "equity, crypto or commodity")
	return cmd
}

func newActCmd(apiBase *string) *cobra.Command {
	names := make([]string, 0, len(game.ActionKinds))
	for _, k := range game.ActionKinds {
		names = append(names, string(k))
	}
	return &cobra.Command{
		Use:       "act <action>",
		Short:     "Queue today's action (" + strings.Join(names, ", ") + ")",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := game.ParseActionKind(args[0])
			if err != nil {
				return err
			}
			st, err := cl.LoadState()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			all, err := newClient(apiBase).SubmitAction(ctx, st.SessionID, st.PlayerID, kind)
			if err != nil {
				return queueOnNetworkError(err, syncq.Command{
					ID:        uuid.NewString(),
					SessionID: st.SessionID,
					PlayerID:  st.PlayerID,
					Action:    string(kind),
					QueuedAt:  time.Now().UTC(),
				})
			}
			printSuccess(fmt.Sprintf("Queued %s.", kind))
			if all {
				printInfo("Everyone has submitted; the day will resolve shortly.")
			}
			return nil
		},
	}
}

func newTradeCmd(apiBase *string, side game.TradeSide) *cobra.Command {
	return &cobra.Command{
		Use:   string(side) + " <symbol> <quantity>",
		Short: strings.ToUpper(string(side[:1])) + string(side[1:]) + " an equity, crypto asset or gold",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("quantity: %w", err)
			}
			st, err := cl.LoadState()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			r, err := newClient(apiBase).Trade(ctx, st.SessionID, st.PlayerID, side, strings.ToUpper(args[0]), qty)
			if err != nil {
				return err
			}
			renderTrade(r)
			return nil
		},
	}
}

func newBankCmd(apiBase *string, op string) *cobra.Command {
	return &cobra.Command{
		Use:   op + " <savings|fixed|current> <amount>",
		Short: strings.ToUpper(op[:1]) + op[1:] + " money at the bank",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := game.ParseAccountKind(args[0])
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			st, err := cl.LoadState()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			r, err := newClient(apiBase).Bank(ctx, st.SessionID, st.PlayerID, op, kind, amount)
			if err != nil {
				return err
			}
			renderBank(op, r)
			return nil
		},
	}
}

func newCareerCmd(apiBase *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "career",
		Short: "Choose a career track or ask for a promotion",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "choose <track>",
		Short: "Start a career track at level 1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cl.LoadState()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).ChooseCareer(ctx, st.SessionID, st.PlayerID, strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			printSuccess("Hired as " + out.NewTitle + ".")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "promote",
		Short: "Request a promotion to the next level",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cl.LoadState()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Promote(ctx, st.SessionID, st.PlayerID)
			if err != nil {
				renderShortfalls(err)
				return err
			}
			printSuccess("Promoted to " + out.NewTitle + ".")
			return nil
		},
	})
	return cmd
}

func newLifestyleCmd(apiBase *string) *cobra.Command {
	var housing, vehicle string
	cmd := &cobra.Command{
		Use:   "lifestyle",
		Short: "Pick housing and vehicle tiers (empty value drops the tier)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var h, v *string
			if cmd.Flags().Changed("housing") {
				h = &housing
			}
			if cmd.Flags().Changed("vehicle") {
				v = &vehicle
			}
			if h == nil && v == nil {
				return fmt.Errorf("pass --housing and/or --vehicle")
			}
			st, err := cl.LoadState()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			p, err := newClient(apiBase).Lifestyle(ctx, st.SessionID, st.PlayerID, h, v)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Housing: %s  Vehicle: %s", orNone(p.Housing), orNone(p.Vehicle)))
			return nil
		},
	}
	cmd.Flags().StringVar(&housing, "housing", "", "RENT, CONDO, HOUSE or empty")
	cmd.Flags().StringVar(&vehicle, "vehicle", "", "MOTORCYCLE, CAR, LUXURY_CAR or empty")
	return cmd
}

func newSyncCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay actions queued while the server was unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := syncq.Load()
			if err != nil {
				return err
			}
			if len(queue) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			client := newClient(apiBase)
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			remaining := make([]syncq.Command, 0, len(queue))
			replayed := 0
			for _, q := range queue {
				_, err := client.SubmitAction(ctx, q.SessionID, q.PlayerID, game.ActionKind(q.Action))
				var apiErr *cl.APIError
				switch {
				case err == nil:
					replayed++
				case errors.As(err, &apiErr):
					// The server answered; retrying will not change its mind.
					printWarn(fmt.Sprintf("Dropped %s for %s/%s: %v", q.Action, q.SessionID, q.PlayerID, err))
				default:
					remaining = append(remaining, q)
				}
			}
			if err := syncq.Save(remaining); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d remaining=%d", replayed, len(remaining)))
			return nil
		},
	}
}

// queueOnNetworkError keeps the action for `life sync` when the request never
// got an answer. Errors the server returned are passed through untouched.
func queueOnNetworkError(err error, q syncq.Command) error {
	var apiErr *cl.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	if qerr := syncq.Push(q); qerr != nil {
		return fmt.Errorf("%w (queueing failed: %v)", err, qerr)
	}
	printWarn("Server unreachable; action queued. Run `life sync` once it is back.")
	return nil
}

func parseSeed(s string) game.PlayerSeed {
	id, name, _ := strings.Cut(strings.TrimSpace(s), ":")
	return game.PlayerSeed{ID: strings.TrimSpace(id), Username: strings.TrimSpace(name)}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
