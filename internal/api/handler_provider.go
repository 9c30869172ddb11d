package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fastprodman/gamewallet/internal/repos/transactions"
	"github.com/fastprodman/gamewallet/internal/services/ledger"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// Ledger is the wallet behaviour the handlers need.
type Ledger interface {
	Play(ctx context.Context, batch ledger.Batch) (ledger.PlayResult, error)
	Rollback(ctx context.Context, req ledger.RollbackRequest) (ledger.RollbackResult, error)
	Balance(ctx context.Context, userID string) (int64, error)
	History(ctx context.Context, userID string, limit int) ([]transactions.Entry, error)
}

// HandlerProvider exposes the ledger over HTTP.
type HandlerProvider struct {
	ledger Ledger
}

func NewHandler(l Ledger) *HandlerProvider {
	return &HandlerProvider{ledger: l}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func parseUserIDFromPath(r *http.Request) (string, error) {
	id := chi.URLParam(r, "userId")
	if id == "" {
		return "", fmt.Errorf("missing userId: %w", ledger.ErrInvalidRequest)
	}

	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body: %w", ledger.ErrInvalidRequest)
		}

		return fmt.Errorf("invalid JSON: %w", ledger.ErrInvalidRequest)
	}

	return nil
}

// --- DTOs ---

type actionRequest struct {
	Action   string      `json:"action"`
	Amount   json.Number `json:"amount"`
	ActionID string      `json:"action_id"`
}

type playRequest struct {
	UserID   string          `json:"user_id"`
	Currency string          `json:"currency"`
	Game     string          `json:"game"`
	GameID   string          `json:"game_id"`
	Finished bool            `json:"finished"`
	Actions  []actionRequest `json:"actions"`
}

type ackResponse struct {
	ActionID    string    `json:"action_id"`
	TxID        string    `json:"tx_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

type playResponse struct {
	Balance      int64         `json:"balance"`
	GameID       string        `json:"game_id"`
	Transactions []ackResponse `json:"transactions"`
}

type rollbackRequest struct {
	UserID        string      `json:"user_id"`
	TransactionID string      `json:"transaction_id"`
	Amount        json.Number `json:"amount"`
}

type balanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

type transactionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Type      string    `json:"type"`
	GameID    string    `json:"game_id,omitempty"`
	ActionID  string    `json:"action_id,omitempty"`
	RefID     string    `json:"ref_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (p playRequest) toBatch() (ledger.Batch, error) {
	batch := ledger.Batch{
		UserID:   p.UserID,
		Currency: p.Currency,
		Game:     p.Game,
		GameID:   p.GameID,
		Finished: p.Finished,
		Actions:  make([]ledger.Action, 0, len(p.Actions)),
	}

	for i, a := range p.Actions {
		kind, err := ledger.ParseActionKind(a.Action)
		if err != nil {
			return ledger.Batch{}, fmt.Errorf("actions[%d]: %w", i, err)
		}

		amount, err := parseMinorUnits(a.Amount)
		if err != nil {
			return ledger.Batch{}, fmt.Errorf("actions[%d]: %w", i, err)
		}

		batch.Actions = append(batch.Actions, ledger.Action{
			Kind:     kind,
			Amount:   amount,
			ActionID: a.ActionID,
		})
	}

	return batch, nil
}

// --- Handlers ---

// PlayHandler handles POST /wallet/play
func (h *HandlerProvider) PlayHandler(w http.ResponseWriter, r *http.Request) {
	var req playRequest

	err := decodeBody(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	batch, err := req.toBatch()
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.ledger.Play(r.Context(), batch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := playResponse{
		Balance:      res.Balance,
		GameID:       res.GameID,
		Transactions: make([]ackResponse, 0, len(res.Transactions)),
	}

	for _, ack := range res.Transactions {
		resp.Transactions = append(resp.Transactions, ackResponse{
			ActionID:    ack.ActionID,
			TxID:        ack.TxID,
			ProcessedAt: ack.ProcessedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// RollbackHandler handles POST /wallet/rollback
func (h *HandlerProvider) RollbackHandler(w http.ResponseWriter, r *http.Request) {
	var req rollbackRequest

	err := decodeBody(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var claimed int64
	if req.Amount != "" {
		claimed, err = parseMinorUnits(req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	res, err := h.ledger.Rollback(r.Context(), ledger.RollbackRequest{
		UserID:        req.UserID,
		TransactionID: req.TransactionID,
		Amount:        claimed,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{UserID: res.UserID, Balance: res.Balance})
}

// HistoryHandler handles GET /wallet/transactions/{userId}?limit=N
func (h *HandlerProvider) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, r, fmt.Errorf("limit must be a positive integer: %w", ledger.ErrInvalidRequest))
			return
		}
	}

	entries, err := h.ledger.History(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]transactionResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, transactionResponse{
			ID:        e.ID,
			UserID:    e.UserID,
			Amount:    e.Amount,
			Type:      string(e.Kind),
			GameID:    e.GameID,
			ActionID:  e.ActionID,
			RefID:     e.RefID,
			CreatedAt: e.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// BalanceHandler handles GET /wallet/balance/{userId}
func (h *HandlerProvider) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	bal, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{UserID: userID, Balance: bal})
}
