package httpapi

import "net/http"

func (s *Server) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.wallet.Balance(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleTopUp(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	t, err := s.wallet.TopUp(r.Context(), userIDFromContext(r.Context()), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

type tipRequest struct {
	ToUserID string `json:"toUserId"`
	Amount   int64  `json:"amount"`
}

func (s *Server) handleTip(w http.ResponseWriter, r *http.Request) {
	var req tipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	t, err := s.wallet.Tip(r.Context(), userIDFromContext(r.Context()), req.ToUserID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	t, err := s.wallet.Withdraw(r.Context(), userIDFromContext(r.Context()), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := s.wallet.ListTransactions(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
