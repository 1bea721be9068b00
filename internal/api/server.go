package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"lifesim/internal/clock"
	"lifesim/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const EventSessionStarted = "session_started"

// Scheduler is the turn clock as seen by the API.
type Scheduler interface {
	Start(sessionID string) error
	Nudge(sessionID string)
	Stop(sessionID string)
	Running(sessionID string) bool
}

// Stream is the websocket side of the hub.
type Stream interface {
	clock.Publisher
	Serve(w http.ResponseWriter, r *http.Request, sessionID, playerID string) error
}

type Server struct {
	engine *game.Engine
	clock  Scheduler
	stream Stream
	log    *zap.Logger
	mux    *chi.Mux
}

// New wires the router. clock and stream may be nil, in which case turns only
// advance through POST /turn and nothing is broadcast.
func New(engine *game.Engine, sched Scheduler, stream Stream, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine: engine,
		clock:  sched,
		stream: stream,
		log:    logger,
		mux:    chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		// The stream is long-lived and stays outside the request timeout.
		r.Get("/sessions/{id}/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Get("/catalog", s.handleCatalog)

			r.Get("/sessions", s.handleListSessions)
			r.Post("/sessions", s.handleCreateSession)
			r.Get("/sessions/{id}", s.handleGetSession)
			r.Delete("/sessions/{id}", s.handleDeleteSession)
			r.Post("/sessions/{id}/join", s.handleJoin)
			r.Post("/sessions/{id}/start", s.handleStart)
			r.Post("/sessions/{id}/turn", s.handleTurn)
			r.Get("/sessions/{id}/market", s.handleMarket)

			r.Route("/sessions/{id}/players/{pid}", func(r chi.Router) {
				r.Get("/", s.handlePlayer)
				r.Post("/action", s.handleAction)
				r.Post("/trade/{side}", s.handleTrade)
				r.Post("/bank/{op}", s.handleBank)
				r.Post("/career/choose", s.handleChooseCareer)
				r.Post("/career/promote", s.handlePromote)
				r.Post("/lifestyle", s.handleLifestyle)
			})
		})
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Catalog())
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.engine.ListSessions()})
}

type playerIn struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID      string     `json:"id"`
		Players []playerIn `json:"players"`
		Start   bool       `json:"start"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	seeds := make([]game.PlayerSeed, 0, len(in.Players))
	for _, p := range in.Players {
		seeds = append(seeds, game.PlayerSeed{ID: p.ID, Username: p.Username})
	}
	snap, err := s.engine.CreateSession(in.ID, seeds)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if in.Start {
		if err := s.start(snap.ID); err != nil {
			writeDomainError(w, err)
			return
		}
		if snap, err = s.engine.GetSession(snap.ID); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.engine.GetSession(id); err != nil {
		writeDomainError(w, err)
		return
	}
	if s.clock != nil {
		s.clock.Stop(id)
	}
	s.closeSession(id)
	writeJSON(w, http.StatusOK, game.Outcome{Success: true})
}

func (s *Server) closeSession(id string) {
	s.engine.DeleteSession(id)
	if s.stream != nil {
		s.stream.Publish(id, clock.EventClosed, nil)
		s.stream.CloseSession(id)
	}
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var in playerIn
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.engine.JoinSession(id, game.PlayerSeed{ID: in.ID, Username: in.Username}); err != nil {
		writeDomainError(w, err)
		return
	}
	p, err := s.engine.Player(id, strings.TrimSpace(in.ID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.start(id); err != nil {
		writeDomainError(w, err)
		return
	}
	snap, err := s.engine.GetSession(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) start(id string) error {
	if err := s.engine.StartSession(id); err != nil {
		return err
	}
	if s.stream != nil {
		s.stream.Publish(id, EventSessionStarted, map[string]any{"session_id": id})
	}
	if s.clock != nil {
		if err := s.clock.Start(id); err != nil {
			return err
		}
	}
	return nil
}

// handleTurn processes the current day immediately. A running clock is nudged
// so it restarts its timer on the new day, or closes the session when this
// turn ended the game. Without a clock the session is closed here.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := s.engine.ProcessTurn(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if s.stream != nil {
		s.stream.Publish(id, clock.EventTurnResult, res)
		if res.GameOver {
			s.stream.Publish(id, clock.EventGameOver, res.Rankings)
		}
	}
	switch {
	case s.clock != nil && s.clock.Running(id):
		s.clock.Nudge(id)
	case res.GameOver:
		s.closeSession(id)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	market, err := s.engine.Market(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instruments": market})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.stream == nil {
		writeError(w, http.StatusNotImplemented, "streaming disabled")
		return
	}
	if _, err := s.engine.GetSession(id); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.stream.Serve(w, r, id, r.URL.Query().Get("player")); err != nil {
		s.log.Warn("stream upgrade failed", zap.String("session_id", id), zap.Error(err))
	}
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.Player(chi.URLParam(r, "id"), chi.URLParam(r, "pid"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Action string `json:"action"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := game.ParseActionKind(in.Action)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	all, err := s.engine.SubmitAction(id, chi.URLParam(r, "pid"), kind)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if all && s.clock != nil {
		s.clock.Nudge(id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "all_submitted": all})
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Symbol   string          `json:"symbol"`
		Quantity decimal.Decimal `json:"quantity"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, pid := chi.URLParam(r, "id"), chi.URLParam(r, "pid")
	var (
		receipt game.TradeReceipt
		err     error
	)
	switch game.TradeSide(chi.URLParam(r, "side")) {
	case game.SideBuy:
		receipt, err = s.engine.BuyInstrument(id, pid, in.Symbol, in.Quantity)
	case game.SideSell:
		receipt, err = s.engine.SellInstrument(id, pid, in.Symbol, in.Quantity)
	default:
		writeError(w, http.StatusNotFound, "side must be buy or sell")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleBank(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Account string          `json:"account"`
		Amount  decimal.Decimal `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := game.ParseAccountKind(in.Account)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	id, pid := chi.URLParam(r, "id"), chi.URLParam(r, "pid")
	var receipt game.BankReceipt
	switch chi.URLParam(r, "op") {
	case "deposit":
		receipt, err = s.engine.DepositBank(id, pid, kind, in.Amount)
	case "withdraw":
		receipt, err = s.engine.WithdrawBank(id, pid, kind, in.Amount)
	default:
		writeError(w, http.StatusNotFound, "op must be deposit or withdraw")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleChooseCareer(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Track string `json:"track"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	title, err := s.engine.ChooseCareer(chi.URLParam(r, "id"), chi.URLParam(r, "pid"), in.Track)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game.Outcome{Success: true, NewTitle: title})
}

func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	title, err := s.engine.PromoteCareer(chi.URLParam(r, "id"), chi.URLParam(r, "pid"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game.Outcome{Success: true, NewTitle: title})
}

func (s *Server) handleLifestyle(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Housing *string `json:"housing"`
		Vehicle *string `json:"vehicle"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, pid := chi.URLParam(r, "id"), chi.URLParam(r, "pid")
	if in.Housing != nil {
		if err := s.engine.ChooseHousing(id, pid, *in.Housing); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if in.Vehicle != nil {
		if err := s.engine.ChooseVehicle(id, pid, *in.Vehicle); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	p, err := s.engine.Player(id, pid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// statusFor maps a reason code to the HTTP status it travels with.
func statusFor(reason game.Reason) int {
	switch reason {
	case game.ReasonSessionNotFound, game.ReasonPlayerNotFound, game.ReasonInstrumentNotFound,
		game.ReasonCareerNotFound, game.ReasonTierNotFound:
		return http.StatusNotFound
	case game.ReasonSessionExists, game.ReasonDuplicatePlayer, game.ReasonNotPlaying,
		game.ReasonNotWaiting, game.ReasonStaleDay, game.ReasonSessionFull:
		return http.StatusConflict
	case game.ReasonTooManySessions:
		return http.StatusServiceUnavailable
	case game.ReasonInsufficientFunds, game.ReasonInsufficientHoldings, game.ReasonNoHolding,
		game.ReasonAlreadyEmployed, game.ReasonNoCareer, game.ReasonMaxLevelReached,
		game.ReasonRequirementsNotMet:
		return http.StatusUnprocessableEntity
	case game.ReasonInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	out := game.OutcomeOf(err)
	writeJSON(w, statusFor(out.Reason), out)
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	reason := game.Reason(strings.ReplaceAll(http.StatusText(status), " ", ""))
	writeJSON(w, status, game.Outcome{Reason: reason, Message: strings.TrimSpace(message)})
}
