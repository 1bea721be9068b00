package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	cl "lifesim/internal/cli"
	"lifesim/internal/game"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"golang.org/x/term"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

// terminalWidth falls back to 80 columns when stdout is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func renderSessions(list []game.SessionSummary) {
	accent.Println("\n== SESSIONS ==")
	if len(list) == 0 {
		printInfo("No live sessions.")
		return
	}
	fmt.Printf("%-36s %-9s %5s %-10s %8s\n", "ID", "STATUS", "DAY", "ECONOMY", "ALIVE")
	for _, s := range list {
		fmt.Printf("%-36s %-9s %5d %-10s %4d/%-3d\n", truncate(s.ID, 36), s.Status, s.Day, s.Economy, s.Alive, s.Players)
	}
	fmt.Println()
}

func renderStatus(snap game.SessionSnapshot, p game.PlayerSnapshot) {
	accent.Printf("\n== %s | day %d | %s economy ==\n", p.Username, snap.Day, snap.Economy)
	if !p.Alive {
		danger.Println("DEFEATED")
	}
	s := p.Stats
	fmt.Printf("Money:      %s\n", colorizeMoney(s.Money))
	fmt.Printf("Happiness:  %s\n", bar(s.Happiness))
	fmt.Printf("Energy:     %s\n", bar(s.Energy))
	fmt.Printf("Health:     %s\n", bar(s.Health))
	fmt.Printf("Stress:     %s\n", bar(s.Stress))
	fmt.Printf("Knowledge:  %d\n", s.Knowledge)
	fmt.Printf("Score:      %d\n", p.Score)
	if p.Pending != nil {
		fmt.Printf("Queued:     %s\n", *p.Pending)
	}

	fmt.Println()
	accent.Println("Career")
	if p.Career == nil {
		printInfo("Unemployed.")
	} else {
		fmt.Printf("%s level %d: %s (%.0f/day, %d work days)\n", p.Career.TrackID, p.Career.Level, p.Career.Title, p.Career.Salary, p.WorkDays)
	}
	fmt.Printf("Housing: %s  Vehicle: %s\n", orNone(p.Housing), orNone(p.Vehicle))

	fmt.Println()
	accent.Println("Bank")
	fmt.Printf("%-8s %14s %14s %8s\n", "ACCOUNT", "BALANCE", "INTEREST", "LOCKED")
	for _, a := range p.Accounts {
		locked := ""
		if a.LockDay > 0 {
			locked = fmt.Sprintf("d%d", a.LockDay)
		}
		fmt.Printf("%-8s %14s %14s %8s\n", a.Kind, a.Balance.StringFixed(2), a.InterestEarned.StringFixed(2), locked)
	}

	fmt.Println()
	accent.Println("Holdings")
	if len(p.Holdings) == 0 {
		printInfo("No holdings yet.")
	} else {
		fmt.Printf("%-8s %-9s %12s %12s %12s %14s\n", "SYMBOL", "CLASS", "UNITS", "AVG", "NOW", "P/L")
		for _, h := range p.Holdings {
			fmt.Printf("%-8s %-9s %12s %12s %12.2f %14s\n",
				h.Symbol, h.Class, h.Units.String(), h.AvgBuyPrice.StringFixed(2), h.CurrentPrice,
				colorizeMoney(h.MarketValue.Sub(h.TotalCost)))
		}
	}
	fmt.Println()
}

func renderMarket(market []game.InstrumentView, class game.AssetClass) {
	accent.Println("\n== MARKET ==")
	nameWidth := 24
	if terminalWidth() < 80 {
		nameWidth = 12
	}
	fmt.Printf("%-8s %-*s %-9s %12s %9s\n", "SYMBOL", nameWidth, "NAME", "CLASS", "PRICE", "CHANGE")
	for _, in := range market {
		if class != "" && in.Class != class {
			continue
		}
		change := 0.0
		if n := len(in.History); n > 0 {
			change = in.History[n-1].PercentChange
		}
		fmt.Printf("%-8s %-*s %-9s %12.2f %9s\n", in.Symbol, nameWidth, truncate(in.Name, nameWidth), in.Class, in.Price, colorizePercent(change))
	}
	fmt.Println()
}

func renderTrade(r game.TradeReceipt) {
	printSuccess(fmt.Sprintf("%s %s %s @ %s (fee %s, total %s)",
		strings.ToUpper(string(r.Side)), r.Quantity, r.Symbol, r.Price.StringFixed(2), r.Fee.StringFixed(2), r.Total.StringFixed(2)))
	fmt.Printf("Money: %s\n", colorizeMoney(r.Money))
}

func renderBank(op string, r game.BankReceipt) {
	verb := "Deposited"
	if op == "withdraw" {
		verb = "Withdrew"
	}
	printSuccess(fmt.Sprintf("%s %s %s.", verb, r.Amount.StringFixed(2), r.Account))
	if r.Fee.IsPositive() {
		printWarn(fmt.Sprintf("Fee charged: %s", r.Fee.StringFixed(2)))
	}
	if r.Locked {
		printWarn("Fixed deposit still locked; the early withdrawal penalty was applied to interest.")
	}
	fmt.Printf("Balance: %s  Money: %s\n", r.Balance.StringFixed(2), colorizeMoney(r.Money))
}

func renderShortfalls(err error) {
	var apiErr *cl.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Shortfalls) == 0 {
		return
	}
	warn.Println("Promotion blocked:")
	for _, s := range apiErr.Shortfalls {
		fmt.Printf("  %-10s %8.0f / %.0f\n", s.Attribute, s.Have, s.Need)
	}
}

func renderTurn(res *game.TurnResult, me string) {
	accent.Printf("\n== DAY %d (%s) ==\n", res.Day, res.Economy)
	for _, ev := range res.GlobalEvents {
		warn.Printf("Global event: %s\n", ev.Kind)
	}
	for _, pt := range res.Players {
		if pt.PlayerID != me {
			continue
		}
		if pt.Action != nil {
			line := fmt.Sprintf("Action %s", pt.Action.Kind)
			if !pt.Action.Success {
				danger.Printf("%s failed: %s\n", line, pt.Action.Reason)
			} else {
				fmt.Printf("%s: %s\n", line, colorizeMoney(pt.Action.Money))
			}
		}
		if pt.Event != nil {
			warn.Printf("Event: %s (%s)\n", pt.Event.Kind, pt.Event.Money.StringFixed(2))
		}
		fmt.Printf("Money %s | score %d\n", colorizeMoney(pt.Stats.Money), pt.Score)
		if pt.Defeated {
			danger.Println("You have been defeated.")
		}
	}
	if res.GameOver {
		renderRankings(res.Rankings)
	}
	fmt.Println()
}

func renderRankings(rankings []game.Ranking) {
	accent.Println("\nFinal rankings")
	fmt.Printf("%-5s %-20s %10s %12s %8s\n", "RANK", "PLAYER", "SCORE", "MONEY", "PRIZE")
	for _, r := range rankings {
		name := truncate(r.Username, 20)
		if !r.Alive {
			name = danger.Sprint(name)
		}
		fmt.Printf("%-5d %-20s %10d %12s %8d\n", r.Rank, name, r.Score, r.Stats.Money.StringFixed(2), r.Prize)
	}
}

func colorizeMoney(v decimal.Decimal) string {
	text := v.StringFixed(2)
	switch v.Sign() {
	case 1:
		return success.Sprint(text)
	case -1:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizePercent(v float64) string {
	text := fmt.Sprintf("%+.2f%%", v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func bar(v int) string {
	const width = 20
	filled := v * width / 100
	filled = max(0, min(width, filled))
	return fmt.Sprintf("%s%s %3d", strings.Repeat("#", filled), strings.Repeat(".", width-filled), v)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
