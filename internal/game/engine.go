package game

import (
	"fmt"
	"strings"
	"time"

	"lifesim/internal/catalog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine is the operation set transport calls into. All methods are safe for
// concurrent use; a turn and player operations on the same session are
// serialized by the session lock.
type Engine struct {
	catalog  *catalog.Catalog
	rules    Rules
	registry *Registry
	rand     RandomSource
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*Engine)

func WithRandomSource(r RandomSource) Option {
	return func(e *Engine) { e.rand = r }
}

func WithMaxSessions(n int) Option {
	return func(e *Engine) { e.registry = NewRegistry(n) }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(cat *catalog.Catalog, rules Rules, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		catalog:  cat,
		rules:    rules,
		registry: NewRegistry(0),
		log:      logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rand == nil {
		e.rand = NewRandomSource(0)
	}
	return e, nil
}

func (e *Engine) Rules() Rules { return e.rules }

func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// CreateSession builds a waiting session with its own market and career
// tables. An empty id gets a generated one.
func (e *Engine) CreateSession(id string, seeds []PlayerSeed) (SessionSnapshot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	if len(seeds) > e.rules.MaxPlayers {
		return SessionSnapshot{}, ErrSessionFull
	}
	s := &Session{
		ID:        id,
		Day:       1,
		Status:    StatusWaiting,
		Economy:   EconomyNormal,
		CreatedAt: e.now().UTC(),
		players:   make(map[string]*PlayerState, len(seeds)),
		market:    NewMarket(e.catalog, e.rand),
		careers:   newCareerTracks(e.catalog),
		housing:   newTiers(e.catalog.Housing),
		vehicles:  newTiers(e.catalog.Vehicles),
		foodCost:  decimal.NewFromFloat(e.catalog.FoodCost),
	}
	for _, seed := range seeds {
		if err := s.addPlayer(seed, e.rules); err != nil {
			return SessionSnapshot{}, err
		}
	}
	if err := e.registry.Create(s); err != nil {
		return SessionSnapshot{}, err
	}
	e.log.Info("session created", zap.String("session_id", id), zap.Int("players", len(seeds)))
	return e.GetSession(id)
}

// JoinSession adds a player while the session is still waiting.
func (e *Engine) JoinSession(sessionID string, seed PlayerSeed) error {
	s, err := e.registry.Get(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status != StatusWaiting {
		return ErrNotWaiting
	}
	if len(s.order) >= e.rules.MaxPlayers {
		return ErrSessionFull
	}
	if err := s.addPlayer(seed, e.rules); err != nil {
		return err
	}
	e.log.Info("player joined", zap.String("session_id", sessionID), zap.String("player_id", seed.ID))
	return nil
}

func (s *Session) addPlayer(seed PlayerSeed, rules Rules) error {
	seed.ID = strings.TrimSpace(seed.ID)
	if seed.ID == "" {
		return ErrInvalidPlayer
	}
	if _, dup := s.players[seed.ID]; dup {
		return ErrDuplicatePlayer
	}
	s.players[seed.ID] = newPlayer(seed, rules)
	s.order = append(s.order, seed.ID)
	return nil
}

func (e *Engine) StartSession(sessionID string) error {
	s, err := e.registry.Get(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status != StatusWaiting {
		return ErrNotWaiting
	}
	if len(s.order) == 0 {
		return ErrNoPlayers
	}
	s.Status = StatusPlaying
	e.log.Info("session started", zap.String("session_id", sessionID), zap.Int("players", len(s.order)))
	return nil
}

// SubmitAction queues the player's action for the current day, replacing any
// earlier submission. It reports whether every alive player has now submitted.
func (e *Engine) SubmitAction(sessionID, playerID string, kind ActionKind) (bool, error) {
	if _, err := ParseActionKind(string(kind)); err != nil {
		return false, err
	}
	s, err := e.registry.Get(sessionID)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Status != StatusPlaying {
		return false, ErrNotPlaying
	}
	p, ok := s.players[playerID]
	if !ok {
		return false, ErrPlayerNotFound
	}
	if !p.Alive {
		return false, fmt.Errorf("%w: player defeated", ErrNotPlaying)
	}
	p.mu.Lock()
	k := kind
	p.Pending = &k
	p.mu.Unlock()

	for _, other := range s.alivePlayers() {
		other.mu.Lock()
		pending := other.Pending != nil
		other.mu.Unlock()
		if !pending {
			return false, nil
		}
	}
	return true, nil
}

func (e *Engine) ProcessTurn(sessionID string) (*TurnResult, error) {
	return e.processTurn(sessionID, nil)
}

// ProcessDay is ProcessTurn guarded by the day the caller scheduled; a day
// the session already moved past is rejected with ErrStaleDay.
func (e *Engine) ProcessDay(sessionID string, day int) (*TurnResult, error) {
	return e.processTurn(sessionID, &day)
}

func (e *Engine) processTurn(sessionID string, day *int) (*TurnResult, error) {
	s, err := e.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status != StatusPlaying {
		return nil, ErrNotPlaying
	}
	if day != nil && *day != s.Day {
		return nil, fmt.Errorf("%w: want %d, session at %d", ErrStaleDay, *day, s.Day)
	}
	res := processTurn(s, e.rules, e.rand)
	e.log.Debug("turn processed",
		zap.String("session_id", sessionID),
		zap.Int("day", res.Day),
		zap.Int("global_events", len(res.GlobalEvents)),
		zap.Bool("game_over", res.GameOver),
	)
	if res.GameOver {
		e.log.Info("session finished", zap.String("session_id", sessionID), zap.Int("day", s.Day))
	}
	return res, nil
}

// withPlayer runs fn with the session read lock and the player's own lock
// held. Finished sessions and defeated players are rejected.
func (e *Engine) withPlayer(sessionID, playerID string, fn func(s *Session, p *PlayerState) error) error {
	s, err := e.registry.Get(sessionID)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Status == StatusFinished {
		return ErrNotPlaying
	}
	p, ok := s.players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	if !p.Alive {
		return fmt.Errorf("%w: player defeated", ErrNotPlaying)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(s, p)
}

func (e *Engine) BuyInstrument(sessionID, playerID, symbol string, qty decimal.Decimal) (TradeReceipt, error) {
	return e.trade(sessionID, playerID, symbol, qty, buy)
}

func (e *Engine) SellInstrument(sessionID, playerID, symbol string, qty decimal.Decimal) (TradeReceipt, error) {
	return e.trade(sessionID, playerID, symbol, qty, sell)
}

func (e *Engine) trade(sessionID, playerID, symbol string, qty decimal.Decimal, op func(*PlayerState, *Instrument, decimal.Decimal) (TradeReceipt, error)) (TradeReceipt, error) {
	var receipt TradeReceipt
	err := e.withPlayer(sessionID, playerID, func(s *Session, p *PlayerState) error {
		inst, ok := s.market.Lookup(strings.ToUpper(strings.TrimSpace(symbol)))
		if !ok {
			return ErrInstrumentNotFound
		}
		var err error
		receipt, err = op(p, inst, qty)
		return err
	})
	if err == nil {
		e.log.Debug("trade",
			zap.String("session_id", sessionID),
			zap.String("player_id", playerID),
			zap.String("side", string(receipt.Side)),
			zap.String("symbol", receipt.Symbol),
			zap.String("quantity", receipt.Quantity.String()),
		)
	}
	return receipt, err
}

func (e *Engine) DepositBank(sessionID, playerID string, kind AccountKind, amount decimal.Decimal) (BankReceipt, error) {
	var receipt BankReceipt
	err := e.withPlayer(sessionID, playerID, func(s *Session, p *PlayerState) error {
		var err error
		receipt, err = deposit(p, kind, amount, s.Day)
		return err
	})
	return receipt, err
}

func (e *Engine) WithdrawBank(sessionID, playerID string, kind AccountKind, amount decimal.Decimal) (BankReceipt, error) {
	var receipt BankReceipt
	err := e.withPlayer(sessionID, playerID, func(s *Session, p *PlayerState) error {
		var err error
		receipt, err = withdraw(p, kind, amount, s.Day, e.rules)
		return err
	})
	return receipt, err
}

// ChooseCareer starts the player at level 1 of trackID and returns its title.
func (e *Engine) ChooseCareer(sessionID, playerID, trackID string) (string, error) {
	var title string
	err := e.withPlayer(sessionID, playerID, func(s *Session, p *PlayerState) error {
		var err error
		title, err = chooseCareer(p, s.careers, strings.ToUpper(strings.TrimSpace(trackID)))
		return err
	})
	return title, err
}

func (e *Engine) PromoteCareer(sessionID, playerID string) (string, error) {
	var title string
	err := e.withPlayer(sessionID, playerID, func(s *Session, p *PlayerState) error {
		var err error
		title, err = promoteCareer(p, s.careers)
		return err
	})
	if err == nil {
		e.log.Info("promotion", zap.String("session_id", sessionID), zap.String("player_id", playerID), zap.String("title", title))
	}
	return title, err
}

// ChooseHousing sets the housing tier; an empty id drops housing altogether.
func (e *Engine) ChooseHousing(sessionID, playerID, tierID string) error {
	return e.withPlayer(sessionID, playerID, func(s *Session, p *PlayerState) error {
		id, err := resolveTier(s.housing, tierID)
		if err != nil {
			return err
		}
		p.Housing = id
		return nil
	})
}

// ChooseVehicle sets the vehicle tier; an empty id drops the vehicle.
func (e *Engine) ChooseVehicle(sessionID, playerID, tierID string) error {
	return e.withPlayer(sessionID, playerID, func(s *Session, p *PlayerState) error {
		id, err := resolveTier(s.vehicles, tierID)
		if err != nil {
			return err
		}
		p.Vehicle = id
		return nil
	})
}

func resolveTier(tiers map[string]LifestyleTier, id string) (string, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return "", nil
	}
	if _, ok := tiers[id]; !ok {
		return "", ErrTierNotFound
	}
	return id, nil
}

func newTiers(defs []catalog.TierDef) map[string]LifestyleTier {
	out := make(map[string]LifestyleTier, len(defs))
	for _, d := range defs {
		out[d.ID] = LifestyleTier{
			ID:        d.ID,
			Name:      d.Name,
			DailyCost: decimal.NewFromFloat(d.DailyCost),
			Happiness: int(d.Happiness),
		}
	}
	return out
}

// GetSession returns a deep copy of the session; nothing in it aliases live
// state.
func (e *Engine) GetSession(sessionID string) (SessionSnapshot, error) {
	s, err := e.registry.Get(sessionID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := SessionSnapshot{
		ID:        s.ID,
		Day:       s.Day,
		Status:    s.Status,
		Economy:   s.Economy,
		CreatedAt: s.CreatedAt,
		Players:   make([]PlayerSnapshot, 0, len(s.order)),
		Market:    s.market.views(false),
	}
	for _, id := range s.order {
		p := s.players[id]
		p.mu.Lock()
		snap.Players = append(snap.Players, playerSnapshot(p, s))
		p.mu.Unlock()
	}
	return snap, nil
}

// Player returns one player's snapshot.
func (e *Engine) Player(sessionID, playerID string) (PlayerSnapshot, error) {
	s, err := e.registry.Get(sessionID)
	if err != nil {
		return PlayerSnapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[playerID]
	if !ok {
		return PlayerSnapshot{}, ErrPlayerNotFound
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return playerSnapshot(p, s), nil
}

// Market returns every instrument with its price history.
func (e *Engine) Market(sessionID string) ([]InstrumentView, error) {
	s, err := e.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.market.views(true), nil
}

func (e *Engine) ListSessions() []SessionSummary {
	ids := e.registry.IDs()
	out := make([]SessionSummary, 0, len(ids))
	for _, id := range ids {
		s, err := e.registry.Get(id)
		if err != nil {
			continue
		}
		s.mu.RLock()
		out = append(out, SessionSummary{
			ID:      s.ID,
			Day:     s.Day,
			Status:  s.Status,
			Economy: s.Economy,
			Players: len(s.order),
			Alive:   s.aliveCount(),
		})
		s.mu.RUnlock()
	}
	return out
}

// DeleteSession drops the session. Deleting an unknown id is a no-op.
func (e *Engine) DeleteSession(sessionID string) {
	if e.registry.Delete(sessionID) {
		e.log.Info("session deleted", zap.String("session_id", sessionID))
	}
}

func playerSnapshot(p *PlayerState, s *Session) PlayerSnapshot {
	snap := PlayerSnapshot{
		ID:       p.ID,
		Username: p.Username,
		Alive:    p.Alive,
		Stats:    statSnapshot(p),
		Accounts: make([]AccountView, 0, len(AccountKinds)),
		Career:   careerView(p, s.careers),
		WorkDays: p.WorkDays,
		Holdings: holdingViews(p, s.market),
		Housing:  p.Housing,
		Vehicle:  p.Vehicle,
		Score:    p.Score,
	}
	for _, k := range AccountKinds {
		acct := p.Accounts[k]
		snap.Accounts = append(snap.Accounts, AccountView{
			Kind:           k,
			Balance:        acct.Balance,
			InterestEarned: acct.InterestEarned,
			LockDay:        acct.LockDay,
		})
	}
	if p.Pending != nil {
		k := *p.Pending
		snap.Pending = &k
	}
	return snap
}

// holdingViews lists positions in market order so output is stable.
func holdingViews(p *PlayerState, m *Market) []HoldingView {
	out := []HoldingView{}
	for _, inst := range m.Instruments() {
		h, ok := p.holdings(inst.Class)[inst.Symbol]
		if !ok {
			continue
		}
		out = append(out, HoldingView{
			Symbol:       inst.Symbol,
			Class:        inst.Class,
			Units:        h.Units,
			AvgBuyPrice:  h.AvgBuyPrice,
			TotalCost:    h.TotalCost,
			CurrentPrice: inst.Price,
			MarketValue:  h.Units.Mul(decimal.NewFromFloat(inst.Price)),
		})
	}
	return out
}
