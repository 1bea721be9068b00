package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MaxHistory        = 30
	SeedHistory       = 10
	DefaultMaxPlayers = 8
)

// Rules are the numeric knobs of a session that operators may tune. Everything
// else (fee schedule, event bands, stat deltas) is fixed game design.
type Rules struct {
	MaxDays           int
	InterestInterval  int
	EndAliveThreshold int
	GlobalEventChance float64
	FixedLockDays     int
	MaxPlayers        int

	StartMoney   decimal.Decimal
	DefeatFloor  decimal.Decimal
	SavingsFee   decimal.Decimal
	FixedPenalty decimal.Decimal
	SavingsRate  decimal.Decimal
	FixedRate    decimal.Decimal
}

func DefaultRules() Rules {
	return Rules{
		MaxDays:           100,
		InterestInterval:  7,
		EndAliveThreshold: 0,
		GlobalEventChance: 0.12,
		FixedLockDays:     28,
		MaxPlayers:        DefaultMaxPlayers,
		StartMoney:        decimal.NewFromInt(850),
		DefeatFloor:       decimal.NewFromInt(-500),
		SavingsFee:        decimal.NewFromInt(10),
		FixedPenalty:      decimal.NewFromFloat(0.5),
		SavingsRate:       decimal.NewFromFloat(0.01),
		FixedRate:         decimal.NewFromFloat(0.03),
	}
}

func (r Rules) Validate() error {
	if r.MaxDays <= 0 {
		return fmt.Errorf("max days must be > 0")
	}
	if r.InterestInterval <= 0 {
		return fmt.Errorf("interest interval must be > 0")
	}
	if r.EndAliveThreshold < 0 {
		return fmt.Errorf("end alive threshold must be >= 0")
	}
	if r.GlobalEventChance < 0 || r.GlobalEventChance > 1 {
		return fmt.Errorf("global event chance must be in [0,1]")
	}
	if r.FixedLockDays < 0 {
		return fmt.Errorf("fixed lock days must be >= 0")
	}
	if r.MaxPlayers <= 0 {
		return fmt.Errorf("max players must be > 0")
	}
	return nil
}

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExists      = errors.New("session already exists")
	ErrTooManySessions    = errors.New("too many live sessions")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInvalidPlayer      = errors.New("player id is required")
	ErrDuplicatePlayer    = errors.New("player already in session")
	ErrSessionFull        = errors.New("session is full")
	ErrNoPlayers          = errors.New("session needs at least one player")
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrNotPlaying         = errors.New("session is not accepting this operation")
	ErrNotWaiting         = errors.New("session already started")
	ErrStaleDay           = errors.New("day already processed")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientUnits  = errors.New("insufficient holdings")
	ErrNoHolding          = errors.New("no holding for instrument")
	ErrAlreadyEmployed    = errors.New("player already has a career")
	ErrCareerNotFound     = errors.New("career track not found")
	ErrNoCareer           = errors.New("player has no career")
	ErrMaxLevelReached    = errors.New("career already at top level")
	ErrRequirementsNotMet = errors.New("promotion requirements not met")
	ErrInvalidAmount      = errors.New("amount must be > 0")
	ErrInvalidQuantity    = errors.New("quantity must be > 0")
	ErrInvalidAction      = errors.New("unknown action")
	ErrInvalidAccount     = errors.New("unknown account kind")
	ErrTierNotFound       = errors.New("lifestyle tier not found")
)

// Shortfall is one attribute that blocks a promotion.
type Shortfall struct {
	Attribute string  `json:"attribute"`
	Have      float64 `json:"have"`
	Need      float64 `json:"need"`
}

type RequirementsError struct {
	Title      string
	Shortfalls []Shortfall
}

func (e *RequirementsError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s %g/%g", s.Attribute, s.Have, s.Need))
	}
	return fmt.Sprintf("%s: %s needs %s", ErrRequirementsNotMet, e.Title, strings.Join(parts, ", "))
}

func (e *RequirementsError) Unwrap() error { return ErrRequirementsNotMet }

type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonSessionNotFound      Reason = "SessionNotFound"
	ReasonSessionExists        Reason = "SessionExists"
	ReasonTooManySessions      Reason = "TooManySessions"
	ReasonPlayerNotFound       Reason = "PlayerNotFound"
	ReasonInvalidPlayer        Reason = "InvalidPlayer"
	ReasonDuplicatePlayer      Reason = "DuplicatePlayer"
	ReasonSessionFull          Reason = "SessionFull"
	ReasonNoPlayers            Reason = "NoPlayers"
	ReasonInstrumentNotFound   Reason = "InstrumentNotFound"
	ReasonNotPlaying           Reason = "NotPlaying"
	ReasonNotWaiting           Reason = "NotWaiting"
	ReasonStaleDay             Reason = "StaleDay"
	ReasonInsufficientFunds    Reason = "InsufficientFunds"
	ReasonInsufficientHoldings Reason = "InsufficientHoldings"
	ReasonNoHolding            Reason = "NoHolding"
	ReasonAlreadyEmployed      Reason = "AlreadyEmployed"
	ReasonCareerNotFound       Reason = "CareerNotFound"
	ReasonNoCareer             Reason = "NoCareer"
	ReasonMaxLevelReached      Reason = "MaxLevelReached"
	ReasonRequirementsNotMet   Reason = "RequirementsNotMet"
	ReasonInvalidAmount        Reason = "InvalidAmount"
	ReasonInvalidQuantity      Reason = "InvalidQuantity"
	ReasonInvalidAction        Reason = "InvalidAction"
	ReasonInvalidAccount       Reason = "InvalidAccount"
	ReasonTierNotFound         Reason = "TierNotFound"
	ReasonInternal             Reason = "Internal"
)

var reasonTable = []struct {
	err    error
	reason Reason
}{
	{ErrSessionNotFound, ReasonSessionNotFound},
	{ErrSessionExists, ReasonSessionExists},
	{ErrTooManySessions, ReasonTooManySessions},
	{ErrPlayerNotFound, ReasonPlayerNotFound},
	{ErrInvalidPlayer, ReasonInvalidPlayer},
	{ErrDuplicatePlayer, ReasonDuplicatePlayer},
	{ErrSessionFull, ReasonSessionFull},
	{ErrNoPlayers, ReasonNoPlayers},
	{ErrInstrumentNotFound, ReasonInstrumentNotFound},
	{ErrNotPlaying, ReasonNotPlaying},
	{ErrNotWaiting, ReasonNotWaiting},
	{ErrStaleDay, ReasonStaleDay},
	{ErrInsufficientFunds, ReasonInsufficientFunds},
	{ErrInsufficientUnits, ReasonInsufficientHoldings},
	{ErrNoHolding, ReasonNoHolding},
	{ErrAlreadyEmployed, ReasonAlreadyEmployed},
	{ErrCareerNotFound, ReasonCareerNotFound},
	{ErrNoCareer, ReasonNoCareer},
	{ErrMaxLevelReached, ReasonMaxLevelReached},
	{ErrRequirementsNotMet, ReasonRequirementsNotMet},
	{ErrInvalidAmount, ReasonInvalidAmount},
	{ErrInvalidQuantity, ReasonInvalidQuantity},
	{ErrInvalidAction, ReasonInvalidAction},
	{ErrInvalidAccount, ReasonInvalidAccount},
	{ErrTierNotFound, ReasonTierNotFound},
}

// ReasonOf maps an engine error to its wire reason code. nil maps to
// ReasonNone; anything outside the taxonomy is ReasonInternal.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	for _, r := range reasonTable {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ReasonInternal
}

// Outcome is the success/failure shape handed to transport for player
// operations.
type Outcome struct {
	Success    bool        `json:"success"`
	Reason     Reason      `json:"reason,omitempty"`
	Message    string      `json:"message,omitempty"`
	NewTitle   string      `json:"new_title,omitempty"`
	Shortfalls []Shortfall `json:"shortfalls,omitempty"`
}

func OutcomeOf(err error) Outcome {
	if err == nil {
		return Outcome{Success: true}
	}
	out := Outcome{Reason: ReasonOf(err), Message: err.Error()}
	var reqErr *RequirementsError
	if errors.As(err, &reqErr) {
		out.Shortfalls = reqErr.Shortfalls
	}
	return out
}
