// Package clock drives sessions forward in time. Each running session has one
// goroutine that owns its turn timer; the fixed-duration timer and the
// early-completion nudge both go through that goroutine, so a day is never
// processed twice.
package clock

import (
	"context"
	"errors"
	"sync"
	"time"

	"lifesim/internal/game"

	"go.uber.org/zap"
)

const (
	EventTurnStart  = "turn_start"
	EventTurnResult = "turn_result"
	EventGameOver   = "game_over"
	EventClosed     = "session_closed"
)

type Engine interface {
	GetSession(sessionID string) (game.SessionSnapshot, error)
	ProcessDay(sessionID string, day int) (*game.TurnResult, error)
	DeleteSession(sessionID string)
}

// Publisher fans session events out to whoever is listening. CloseSession
// disconnects the listeners of a session that no longer exists.
type Publisher interface {
	Publish(sessionID, kind string, payload any)
	CloseSession(sessionID string)
}

type Config struct {
	TurnDuration time.Duration
	ResultDelay  time.Duration
}

type TurnStart struct {
	Day      int       `json:"day"`
	Deadline time.Time `json:"deadline"`
}

type Clock struct {
	engine Engine
	pub    Publisher
	cfg    Config
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	loops map[string]*loop
}

type loop struct {
	cancel context.CancelFunc
	nudge  chan struct{}
}

var ErrAlreadyRunning = errors.New("session clock already running")

func New(engine Engine, pub Publisher, cfg Config, logger *zap.Logger) *Clock {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Clock{
		engine: engine,
		pub:    pub,
		cfg:    cfg,
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
		loops:  make(map[string]*loop),
	}
}

// Start arms the turn timer for a playing session.
func (c *Clock) Start(sessionID string) error {
	snap, err := c.engine.GetSession(sessionID)
	if err != nil {
		return err
	}
	if snap.Status != game.StatusPlaying {
		return game.ErrNotPlaying
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx.Err() != nil {
		return c.ctx.Err()
	}
	if _, ok := c.loops[sessionID]; ok {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(c.ctx)
	l := &loop{cancel: cancel, nudge: make(chan struct{}, 1)}
	c.loops[sessionID] = l

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.forget(sessionID, l)
		c.run(ctx, sessionID, l)
	}()
	return nil
}

// Nudge asks the session to process its current day now instead of waiting
// for the timer. Extra nudges for the same day collapse into one.
func (c *Clock) Nudge(sessionID string) {
	c.mu.Lock()
	l, ok := c.loops[sessionID]
	c.mu.Unlock()
	if !ok {
		return
	}
	select {
	case l.nudge <- struct{}{}:
	default:
	}
}

func (c *Clock) Stop(sessionID string) {
	c.mu.Lock()
	l, ok := c.loops[sessionID]
	c.mu.Unlock()
	if ok {
		l.cancel()
	}
}

// Running reports whether the session has a live clock. Once it returns false
// nobody will close the session on game over.
func (c *Clock) Running(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.loops[sessionID]
	return ok
}

// Close stops every session clock and waits for their goroutines.
func (c *Clock) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Clock) forget(sessionID string, l *loop) {
	c.mu.Lock()
	if c.loops[sessionID] == l {
		delete(c.loops, sessionID)
	}
	c.mu.Unlock()
	l.cancel()
}

func (c *Clock) run(ctx context.Context, sessionID string, l *loop) {
	log := c.log.With(zap.String("session_id", sessionID))
	for {
		// A nudge left over from the previous day must not cut this one short.
		// Draining before the snapshot keeps a nudge that races the snapshot.
		select {
		case <-l.nudge:
		default:
		}

		snap, err := c.engine.GetSession(sessionID)
		if err != nil {
			return
		}
		switch snap.Status {
		case game.StatusFinished:
			c.close(ctx, sessionID, log)
			return
		case game.StatusPlaying:
		default:
			return
		}
		day := snap.Day

		if !allSubmitted(snap) {
			deadline := time.Now().Add(c.cfg.TurnDuration)
			c.pub.Publish(sessionID, EventTurnStart, TurnStart{Day: day, Deadline: deadline})
			timer := time.NewTimer(c.cfg.TurnDuration)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			case <-l.nudge:
				timer.Stop()
			}
		}

		res, err := c.engine.ProcessDay(sessionID, day)
		switch {
		case errors.Is(err, game.ErrStaleDay):
			continue
		case errors.Is(err, game.ErrNotPlaying):
			// Finished by a manual turn.
			c.close(ctx, sessionID, log)
			return
		case err != nil:
			log.Warn("turn failed", zap.Int("day", day), zap.Error(err))
			return
		}
		c.pub.Publish(sessionID, EventTurnResult, res)
		log.Debug("turn published", zap.Int("day", res.Day))

		if res.GameOver {
			c.pub.Publish(sessionID, EventGameOver, res.Rankings)
			c.close(ctx, sessionID, log)
			return
		}
		if err := sleepWithContext(ctx, c.cfg.ResultDelay); err != nil {
			return
		}
	}
}

// close leaves the final result up for ResultDelay, then removes the session
// and disconnects its listeners.
func (c *Clock) close(ctx context.Context, sessionID string, log *zap.Logger) {
	if err := sleepWithContext(ctx, c.cfg.ResultDelay); err != nil {
		return
	}
	c.engine.DeleteSession(sessionID)
	c.pub.Publish(sessionID, EventClosed, nil)
	c.pub.CloseSession(sessionID)
	log.Info("session closed after game over")
}

func allSubmitted(snap game.SessionSnapshot) bool {
	alive := 0
	for _, p := range snap.Players {
		if !p.Alive {
			continue
		}
		alive++
		if p.Pending == nil {
			return false
		}
	}
	return alive > 0
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
