package match

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/skillstake/wager-engine/internal/escrow"
	"github.com/skillstake/wager-engine/internal/identity"
	"github.com/skillstake/wager-engine/internal/ledger"
	"github.com/skillstake/wager-engine/internal/model"
	"github.com/skillstake/wager-engine/internal/risk"
	"github.com/skillstake/wager-engine/internal/store"
)

// assetScale converts base units to display units (micro-units, 6dp).
const assetScale = -6

// displayAmount renders a base-unit amount as a decimal asset string.
func displayAmount(baseUnits uint64) string {
	return decimal.NewFromUint64(baseUnits).Shift(assetScale).String()
}

// displaySigned renders a signed base-unit amount (PnL) as a decimal string.
func displaySigned(baseUnits int64) string {
	return decimal.NewFromInt(baseUnits).Shift(assetScale).String()
}

// --- Request/Response types ---

// InitPlatformRequest is the JSON body for POST /api/v1/platform.
type InitPlatformRequest struct {
	Authority string `json:"authority"`
	Treasury  string `json:"treasury"`
	FeeBps    uint16 `json:"fee_bps"`
}

// CreateProfileRequest is the JSON body for POST /api/v1/profiles.
type CreateProfileRequest struct {
	Owner       string `json:"owner"`
	DisplayName string `json:"display_name"`
}

// CreateMatchRequest is the JSON body for POST /api/v1/matches.
type CreateMatchRequest struct {
	Caller           string `json:"caller"`
	PlayerOne        string `json:"player_one"`
	PlayerTwo        string `json:"player_two"`
	StakeAmount      uint64 `json:"stake_amount"`
	TimeframeSeconds uint32 `json:"timeframe_seconds"`
}

// CallerRequest is the JSON body for deposit/claim/cancel/close.
type CallerRequest struct {
	Caller string `json:"caller"`
}

// SettleRequest is the JSON body for POST /api/v1/matches/{matchID}/settle.
type SettleRequest struct {
	Caller       string `json:"caller"`
	Winner       string `json:"winner,omitempty"`
	PlayerOnePnL int64  `json:"player_one_pnl"`
	PlayerTwoPnL int64  `json:"player_two_pnl"`
	IsForfeit    bool   `json:"is_forfeit"`
}

// ClaimResponse is the JSON body returned from a successful claim.
type ClaimResponse struct {
	MatchID       uint64 `json:"match_id"`
	Winner        string `json:"winner"`
	TotalPot      uint64 `json:"total_pot"`
	Fee           uint64 `json:"fee"`
	Payout        uint64 `json:"payout"`
	PayoutDisplay string `json:"payout_display"`
	FeeDisplay    string `json:"fee_display"`
}

// LeaderboardEntry is one row of GET /api/v1/leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Owner       string `json:"owner"`
	DisplayName string `json:"display_name"`
	Rating      uint32 `json:"rating"`
	Wins        uint32 `json:"wins"`
	Losses      uint32 `json:"losses"`
	Ties        uint32 `json:"ties"`
	GamesPlayed uint32 `json:"games_played"`
	WinRate     string `json:"win_rate"`
	PnLDisplay  string `json:"pnl_display"`
}

// --- HTTP Handlers ---

// HandleInitPlatform handles POST /api/v1/platform.
func (s *Service) HandleInitPlatform(w http.ResponseWriter, r *http.Request) {
	var req InitPlatformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := s.InitPlatform(r.Context(), req.Authority, req.Treasury, req.FeeBps)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleCreateProfile handles POST /api/v1/profiles.
func (s *Service) HandleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := s.CreateProfile(r.Context(), req.Owner, req.DisplayName)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleGetProfile handles GET /api/v1/profiles/{playerID}.
func (s *Service) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.GetProfile(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleLeaderboard handles GET /api/v1/leaderboard.
// Returns the top profiles by rating with win rates as decimals.
func (s *Service) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	profiles, err := s.store.ListTopProfiles(r.Context(), limit)
	if err != nil {
		writeError(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}

	entries := make([]LeaderboardEntry, 0, len(profiles))
	for i, p := range profiles {
		winRate := decimal.Zero
		if p.GamesPlayed > 0 {
			winRate = decimal.NewFromInt(int64(p.Wins)).
				Div(decimal.NewFromInt(int64(p.GamesPlayed))).
				Round(4)
		}
		entries = append(entries, LeaderboardEntry{
			Rank:        i + 1,
			Owner:       p.Owner,
			DisplayName: p.DisplayName,
			Rating:      p.Rating,
			Wins:        p.Wins,
			Losses:      p.Losses,
			Ties:        p.Ties,
			GamesPlayed: p.GamesPlayed,
			WinRate:     winRate.String(),
			PnLDisplay:  displaySigned(p.TotalPnL),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleCreateMatch handles POST /api/v1/matches.
func (s *Service) HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m, err := s.CreateMatch(r.Context(), req.Caller, req.PlayerOne, req.PlayerTwo,
		req.StakeAmount, req.TimeframeSeconds)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandleGetMatch handles GET /api/v1/matches/{matchID}.
func (s *Service) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := parseMatchID(w, r)
	if !ok {
		return
	}
	m, err := s.GetMatch(r.Context(), matchID)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleListMatches handles GET /api/v1/matches.
func (s *Service) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.ListMatches(r.Context())
	if err != nil {
		writeError(w, "failed to list matches", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// HandleDeposit handles POST /api/v1/matches/{matchID}/deposit.
func (s *Service) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	matchID, ok := parseMatchID(w, r)
	if !ok {
		return
	}
	var req CallerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m, err := s.Deposit(r.Context(), matchID, req.Caller)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleSettle handles POST /api/v1/matches/{matchID}/settle.
func (s *Service) HandleSettle(w http.ResponseWriter, r *http.Request) {
	matchID, ok := parseMatchID(w, r)
	if !ok {
		return
	}
	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m, err := s.Settle(r.Context(), matchID, req.Caller, req.Winner,
		req.PlayerOnePnL, req.PlayerTwoPnL, req.IsForfeit)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleClaim handles POST /api/v1/matches/{matchID}/claim.
func (s *Service) HandleClaim(w http.ResponseWriter, r *http.Request) {
	matchID, ok := parseMatchID(w, r)
	if !ok {
		return
	}
	var req CallerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	split, err := s.Claim(r.Context(), matchID, req.Caller)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, ClaimResponse{
		MatchID:       matchID,
		Winner:        req.Caller,
		TotalPot:      split.TotalPot,
		Fee:           split.Fee,
		Payout:        split.Payout,
		PayoutDisplay: displayAmount(split.Payout),
		FeeDisplay:    displayAmount(split.Fee),
	})
}

// HandleRefund handles POST /api/v1/matches/{matchID}/refund.
// Permissionless: no caller field is required.
func (s *Service) HandleRefund(w http.ResponseWriter, r *http.Request) {
	matchID, ok := parseMatchID(w, r)
	if !ok {
		return
	}
	m, err := s.Refund(r.Context(), matchID)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleCancel handles POST /api/v1/matches/{matchID}/cancel.
func (s *Service) HandleCancel(w http.ResponseWriter, r *http.Request) {
	matchID, ok := parseMatchID(w, r)
	if !ok {
		return
	}
	var req CallerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m, err := s.Cancel(r.Context(), matchID, req.Caller)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleClose handles DELETE /api/v1/matches/{matchID}.
func (s *Service) HandleClose(w http.ResponseWriter, r *http.Request) {
	matchID, ok := parseMatchID(w, r)
	if !ok {
		return
	}
	var req CallerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.Close(r.Context(), matchID, req.Caller); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- helpers ---

func parseMatchID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	matchID, err := strconv.ParseUint(chi.URLParam(r, "matchID"), 10, 64)
	if err != nil {
		writeError(w, "invalid match id", http.StatusBadRequest)
		return 0, false
	}
	return matchID, true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrPlatformNotFound),
		errors.Is(err, store.ErrProfileNotFound),
		errors.Is(err, store.ErrMatchNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrPlatformExists),
		errors.Is(err, store.ErrProfileExists):
		return http.StatusConflict

	case errors.Is(err, ErrNotAuthority),
		errors.Is(err, ErrNotParticipant),
		errors.Is(err, ErrNotWinner):
		return http.StatusForbidden

	case errors.Is(err, ErrMatchNotPending),
		errors.Is(err, ErrMatchNotActive),
		errors.Is(err, ErrAlreadyDeposited),
		errors.Is(err, ErrNotClaimable),
		errors.Is(err, ErrNotRefundable),
		errors.Is(err, ErrNotResolved),
		errors.Is(err, ErrEscrowNotEmpty),
		errors.Is(err, risk.ErrStakeLimitExceeded),
		errors.Is(err, risk.ErrExposureLimitExceeded),
		errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusConflict

	case errors.Is(err, escrow.ErrMathOverflow):
		return http.StatusUnprocessableEntity

	case errors.Is(err, escrow.ErrZeroStake),
		errors.Is(err, model.ErrInvalidFeeBps),
		errors.Is(err, model.ErrEmptyDisplayName),
		errors.Is(err, model.ErrDisplayNameTooLong),
		errors.Is(err, identity.ErrInvalidIdentity),
		errors.Is(err, identity.ErrSameIdentity),
		errors.Is(err, ErrWinnerNotPlayer),
		errors.Is(err, ErrForfeitWithoutWinner):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
