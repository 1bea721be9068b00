package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lifesim/internal/game"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response. Reason carries the engine's reason code when
// the server sent one.
type APIError struct {
	Status     int
	Reason     game.Reason
	Message    string
	Shortfalls []game.Shortfall
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func (c *Client) Catalog(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/catalog", nil, &out)
	return out, err
}

func (c *Client) ListSessions(ctx context.Context) ([]game.SessionSummary, error) {
	var out struct {
		Sessions []game.SessionSummary `json:"sessions"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/sessions", nil, &out)
	return out.Sessions, err
}

func (c *Client) CreateSession(ctx context.Context, id string, players []game.PlayerSeed, start bool) (game.SessionSnapshot, error) {
	seeds := make([]map[string]string, 0, len(players))
	for _, p := range players {
		seeds = append(seeds, map[string]string{"id": p.ID, "username": p.Username})
	}
	var out game.SessionSnapshot
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/sessions", map[string]any{
		"id":      id,
		"players": seeds,
		"start":   start,
	}, &out)
	return out, err
}

func (c *Client) Session(ctx context.Context, sessionID string) (game.SessionSnapshot, error) {
	var out game.SessionSnapshot
	err := c.jsonRequest(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, &out)
	return out, err
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.jsonRequest(ctx, http.MethodDelete, sessionPath(sessionID, ""), nil, nil)
}

func (c *Client) Join(ctx context.Context, sessionID string, seed game.PlayerSeed) (game.PlayerSnapshot, error) {
	var out game.PlayerSnapshot
	err := c.jsonRequest(ctx, http.MethodPost, sessionPath(sessionID, "/join"), map[string]string{
		"id":       seed.ID,
		"username": seed.Username,
	}, &out)
	return out, err
}

func (c *Client) Start(ctx context.Context, sessionID string) (game.SessionSnapshot, error) {
	var out game.SessionSnapshot
	err := c.jsonRequest(ctx, http.MethodPost, sessionPath(sessionID, "/start"), nil, &out)
	return out, err
}

func (c *Client) ProcessTurn(ctx context.Context, sessionID string) (*game.TurnResult, error) {
	var out game.TurnResult
	if err := c.jsonRequest(ctx, http.MethodPost, sessionPath(sessionID, "/turn"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Market(ctx context.Context, sessionID string) ([]game.InstrumentView, error) {
	var out struct {
		Instruments []game.InstrumentView `json:"instruments"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, sessionPath(sessionID, "/market"), nil, &out)
	return out.Instruments, err
}

func (c *Client) Player(ctx context.Context, sessionID, playerID string) (game.PlayerSnapshot, error) {
	var out game.PlayerSnapshot
	err := c.jsonRequest(ctx, http.MethodGet, playerPath(sessionID, playerID, ""), nil, &out)
	return out, err
}

func (c *Client) SubmitAction(ctx context.Context, sessionID, playerID string, action game.ActionKind) (bool, error) {
	var out struct {
		AllSubmitted bool `json:"all_submitted"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, playerPath(sessionID, playerID, "/action"), map[string]string{
		"action": string(action),
	}, &out)
	return out.AllSubmitted, err
}

func (c *Client) Trade(ctx context.Context, sessionID, playerID string, side game.TradeSide, symbol string, qty decimal.Decimal) (game.TradeReceipt, error) {
	var out game.TradeReceipt
	err := c.jsonRequest(ctx, http.MethodPost, playerPath(sessionID, playerID, "/trade/"+string(side)), map[string]any{
		"symbol":   symbol,
		"quantity": qty,
	}, &out)
	return out, err
}

// Bank runs a deposit or withdraw against one of the player's accounts.
func (c *Client) Bank(ctx context.Context, sessionID, playerID, op string, account game.AccountKind, amount decimal.Decimal) (game.BankReceipt, error) {
	var out game.BankReceipt
	err := c.jsonRequest(ctx, http.MethodPost, playerPath(sessionID, playerID, "/bank/"+op), map[string]any{
		"account": account,
		"amount":  amount,
	}, &out)
	return out, err
}

func (c *Client) ChooseCareer(ctx context.Context, sessionID, playerID, track string) (game.Outcome, error) {
	var out game.Outcome
	err := c.jsonRequest(ctx, http.MethodPost, playerPath(sessionID, playerID, "/career/choose"), map[string]string{
		"track": track,
	}, &out)
	return out, err
}

func (c *Client) Promote(ctx context.Context, sessionID, playerID string) (game.Outcome, error) {
	var out game.Outcome
	err := c.jsonRequest(ctx, http.MethodPost, playerPath(sessionID, playerID, "/career/promote"), nil, &out)
	return out, err
}

// Lifestyle changes housing and/or vehicle. A nil pointer leaves that tier
// alone; an empty string clears it.
func (c *Client) Lifestyle(ctx context.Context, sessionID, playerID string, housing, vehicle *string) (game.PlayerSnapshot, error) {
	body := map[string]*string{}
	if housing != nil {
		body["housing"] = housing
	}
	if vehicle != nil {
		body["vehicle"] = vehicle
	}
	var out game.PlayerSnapshot
	err := c.jsonRequest(ctx, http.MethodPost, playerPath(sessionID, playerID, "/lifestyle"), body, &out)
	return out, err
}

// Stream opens the session's event websocket.
func (c *Client) Stream(ctx context.Context, sessionID, playerID string) (*websocket.Conn, error) {
	u, err := url.Parse(c.BaseURL + sessionPath(sessionID, "/stream"))
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if playerID != "" {
		u.RawQuery = url.Values{"player": {playerID}}.Encode()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	return conn, err
}

func sessionPath(sessionID, suffix string) string {
	return "/v1/sessions/" + url.PathEscape(sessionID) + suffix
}

func playerPath(sessionID, playerID, suffix string) string {
	return sessionPath(sessionID, "/players/"+url.PathEscape(playerID)+suffix)
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var outcome game.Outcome
		if json.Unmarshal(raw, &outcome) == nil && outcome.Reason != "" {
			apiErr.Reason = outcome.Reason
			apiErr.Message = outcome.Message
			apiErr.Shortfalls = outcome.Shortfalls
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
