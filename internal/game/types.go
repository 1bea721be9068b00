package game

import (
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

type Economy string

const (
	EconomyNormal    Economy = "normal"
	EconomyBoom      Economy = "boom"
	EconomyRecession Economy = "recession"
)

type AssetClass string

const (
	ClassEquity    AssetClass = "equity"
	ClassCrypto    AssetClass = "crypto"
	ClassCommodity AssetClass = "commodity"
)

type AccountKind string

const (
	AccountSavings AccountKind = "SAVINGS"
	AccountFixed   AccountKind = "FIXED"
	AccountCurrent AccountKind = "CURRENT"
)

var AccountKinds = []AccountKind{AccountSavings, AccountFixed, AccountCurrent}

func ParseAccountKind(s string) (AccountKind, error) {
	switch k := AccountKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case AccountSavings, AccountFixed, AccountCurrent:
		return k, nil
	default:
		return "", ErrInvalidAccount
	}
}

type PricePoint struct {
	Price         float64 `json:"price"`
	PercentChange float64 `json:"percent_change"`
}

// Instrument is session-owned market state. It is copied from the catalog at
// session creation and never shared between sessions.
type Instrument struct {
	Symbol     string
	Name       string
	Class      AssetClass
	Category   string
	Price      float64
	BasePrice  float64
	Volatility float64
	Floor      float64
	Ceiling    float64
	History    []PricePoint
}

// Holding is a position in one instrument. AvgBuyPrice is TotalCost/Units
// whenever Units > 0; zero-unit holdings are removed, never kept.
type Holding struct {
	Units       decimal.Decimal
	AvgBuyPrice decimal.Decimal
	TotalCost   decimal.Decimal
}

type Account struct {
	Balance        decimal.Decimal
	InterestEarned decimal.Decimal
	LockDay        int
}

type Career struct {
	TrackID string
	Level   int
}

func (c Career) Employed() bool { return c.TrackID != "" }

type PlayerSeed struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// PlayerState is mutated by player operations under mu (with the session
// read lock held) and by the turn under the session write lock.
type PlayerState struct {
	mu sync.Mutex

	ID       string
	Username string
	Alive    bool

	Money     decimal.Decimal
	Happiness int
	Energy    int
	Knowledge int
	Health    int
	Stress    int

	Accounts map[AccountKind]*Account
	Career   Career
	WorkDays int

	Portfolio    map[string]*Holding
	CryptoWallet map[string]*Holding
	Commodities  map[string]*Holding

	Housing string
	Vehicle string
	Pending *ActionKind
	Score   int64
}

func newPlayer(seed PlayerSeed, rules Rules) *PlayerState {
	accounts := make(map[AccountKind]*Account, len(AccountKinds))
	for _, k := range AccountKinds {
		accounts[k] = &Account{}
	}
	p := &PlayerState{
		ID:           seed.ID,
		Username:     seed.Username,
		Alive:        true,
		Money:        rules.StartMoney,
		Happiness:    50,
		Energy:       100,
		Knowledge:    10,
		Health:       100,
		Stress:       0,
		Accounts:     accounts,
		Portfolio:    make(map[string]*Holding),
		CryptoWallet: make(map[string]*Holding),
		Commodities:  make(map[string]*Holding),
	}
	if p.Username == "" {
		p.Username = p.ID
	}
	return p
}

// holdings returns the namespace a class of instrument is held in.
func (p *PlayerState) holdings(class AssetClass) map[string]*Holding {
	switch class {
	case ClassCrypto:
		return p.CryptoWallet
	case ClassCommodity:
		return p.Commodities
	default:
		return p.Portfolio
	}
}

type Session struct {
	mu sync.RWMutex

	ID        string
	Day       int
	Status    Status
	Economy   Economy
	CreatedAt time.Time

	players map[string]*PlayerState
	order   []string

	market   *Market
	careers  map[string]CareerTrack
	housing  map[string]LifestyleTier
	vehicles map[string]LifestyleTier
	foodCost decimal.Decimal
}

func (s *Session) alivePlayers() []*PlayerState {
	out := make([]*PlayerState, 0, len(s.order))
	for _, id := range s.order {
		if p := s.players[id]; p.Alive {
			out = append(out, p)
		}
	}
	return out
}

func (s *Session) aliveCount() int {
	n := 0
	for _, p := range s.players {
		if p.Alive {
			n++
		}
	}
	return n
}

type LifestyleTier struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	DailyCost decimal.Decimal `json:"daily_cost"`
	Happiness int             `json:"happiness"`
}

type ActionOutcome struct {
	Kind    ActionKind      `json:"kind"`
	Success bool            `json:"success"`
	Reason  string          `json:"reason,omitempty"`
	Money   decimal.Decimal `json:"money_delta"`
}

type PersonalEvent struct {
	Kind   PersonalEventKind `json:"kind"`
	Money  decimal.Decimal   `json:"money_delta"`
	Health int               `json:"health_delta,omitempty"`
}

type GlobalEvent struct {
	Kind    GlobalEventKind `json:"kind"`
	Economy Economy         `json:"economy,omitempty"`
	Shocked []string        `json:"shocked,omitempty"`
}

type StatSnapshot struct {
	Money     decimal.Decimal `json:"money"`
	Happiness int             `json:"happiness"`
	Energy    int             `json:"energy"`
	Knowledge int             `json:"knowledge"`
	Health    int             `json:"health"`
	Stress    int             `json:"stress"`
}

type PlayerTurn struct {
	PlayerID string         `json:"player_id"`
	Username string         `json:"username"`
	Action   *ActionOutcome `json:"action,omitempty"`
	Event    *PersonalEvent `json:"event,omitempty"`
	Stats    StatSnapshot   `json:"stats"`
	Alive    bool           `json:"alive"`
	Defeated bool           `json:"defeated,omitempty"`
	Score    int64          `json:"score"`
}

type Ranking struct {
	Rank     int          `json:"rank"`
	PlayerID string       `json:"player_id"`
	Username string       `json:"username"`
	Score    int64        `json:"score"`
	Alive    bool         `json:"alive"`
	Prize    int64        `json:"prize"`
	Stats    StatSnapshot `json:"stats"`
}

type TurnResult struct {
	SessionID    string        `json:"session_id"`
	Day          int           `json:"day"`
	Economy      Economy       `json:"economy"`
	Players      []PlayerTurn  `json:"players"`
	GlobalEvents []GlobalEvent `json:"global_events"`
	GameOver     bool          `json:"game_over"`
	Rankings     []Ranking     `json:"rankings,omitempty"`
}

type HoldingView struct {
	Symbol       string          `json:"symbol"`
	Class        AssetClass      `json:"class"`
	Units        decimal.Decimal `json:"units"`
	AvgBuyPrice  decimal.Decimal `json:"avg_buy_price"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	CurrentPrice float64         `json:"current_price"`
	MarketValue  decimal.Decimal `json:"market_value"`
}

type AccountView struct {
	Kind           AccountKind     `json:"kind"`
	Balance        decimal.Decimal `json:"balance"`
	InterestEarned decimal.Decimal `json:"interest_earned"`
	LockDay        int             `json:"lock_day,omitempty"`
}

type CareerView struct {
	TrackID string  `json:"track_id"`
	Level   int     `json:"level"`
	Title   string  `json:"title"`
	Salary  float64 `json:"salary"`
}

type PlayerSnapshot struct {
	ID       string        `json:"id"`
	Username string        `json:"username"`
	Alive    bool          `json:"alive"`
	Stats    StatSnapshot  `json:"stats"`
	Accounts []AccountView `json:"accounts"`
	Career   *CareerView   `json:"career,omitempty"`
	WorkDays int           `json:"work_days"`
	Holdings []HoldingView `json:"holdings"`
	Housing  string        `json:"housing,omitempty"`
	Vehicle  string        `json:"vehicle,omitempty"`
	Pending  *ActionKind   `json:"pending,omitempty"`
	Score    int64         `json:"score"`
}

type InstrumentView struct {
	Symbol     string       `json:"symbol"`
	Name       string       `json:"name"`
	Class      AssetClass   `json:"class"`
	Category   string       `json:"category,omitempty"`
	Price      float64      `json:"price"`
	BasePrice  float64      `json:"base_price"`
	Volatility float64      `json:"volatility"`
	Floor      float64      `json:"floor"`
	Ceiling    float64      `json:"ceiling"`
	History    []PricePoint `json:"history,omitempty"`
}

type SessionSnapshot struct {
	ID        string           `json:"id"`
	Day       int              `json:"day"`
	Status    Status           `json:"status"`
	Economy   Economy          `json:"economy"`
	CreatedAt time.Time        `json:"created_at"`
	Players   []PlayerSnapshot `json:"players"`
	Market    []InstrumentView `json:"market"`
}

type SessionSummary struct {
	ID      string  `json:"id"`
	Day     int     `json:"day"`
	Status  Status  `json:"status"`
	Economy Economy `json:"economy"`
	Players int     `json:"players"`
	Alive   int     `json:"alive"`
}

type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

type TradeReceipt struct {
	Symbol   string          `json:"symbol"`
	Class    AssetClass      `json:"class"`
	Side     TradeSide       `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Fee      decimal.Decimal `json:"fee"`
	Total    decimal.Decimal `json:"total"`
	Money    decimal.Decimal `json:"money"`
}

type BankReceipt struct {
	Account AccountKind     `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
	Fee     decimal.Decimal `json:"fee"`
	Locked  bool            `json:"locked,omitempty"`
	Balance decimal.Decimal `json:"balance"`
	Money   decimal.Decimal `json:"money"`
}
