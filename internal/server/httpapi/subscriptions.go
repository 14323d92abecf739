package httpapi

import "net/http"

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	viewerID := userIDFromContext(r.Context())
	if err := s.subscriptions.Subscribe(r.Context(), viewerID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	viewerID := userIDFromContext(r.Context())
	if err := s.subscriptions.Unsubscribe(r.Context(), viewerID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	viewerID := userIDFromContext(r.Context())
	subscribed, err := s.subscriptions.IsSubscribed(r.Context(), viewerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"subscribed": subscribed})
}

type confirmPaymentRequest struct {
	Reference string `json:"reference"`
	CreatorID string `json:"creatorId"`
	Amount    int64  `json:"amount"`
}

// handleConfirmPayment records the payment gateway's success callback and
// completes the paid subscription. Repeats with the same reference are
// acknowledged without effect.
func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	viewerID := userIDFromContext(r.Context())
	err := s.subscriptions.ConfirmPaidSubscription(r.Context(), req.Reference, viewerID, req.CreatorID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type verificationUploadURLsResponse struct {
	IDKey     string `json:"idKey"`
	IDURL     string `json:"idUrl"`
	SelfieKey string `json:"selfieKey"`
	SelfieURL string `json:"selfieUrl"`
}

func (s *Server) handleVerificationUploadURLs(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	idKey, idURL, selfieKey, selfieURL, err := s.storage.BeginVerificationUpload(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verificationUploadURLsResponse{
		IDKey:     idKey,
		IDURL:     idURL,
		SelfieKey: selfieKey,
		SelfieURL: selfieURL,
	})
}

type submitVerificationRequest struct {
	IDKey     string `json:"idKey"`
	SelfieKey string `json:"selfieKey"`
}

func (s *Server) handleSubmitVerification(w http.ResponseWriter, r *http.Request) {
	var req submitVerificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID := userIDFromContext(r.Context())
	if err := s.subscriptions.SubmitVerification(r.Context(), userID, req.IDKey, req.SelfieKey); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleApproveVerification(w http.ResponseWriter, r *http.Request) {
	if err := s.subscriptions.ApproveVerification(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type monetizationRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleSetMonetization(w http.ResponseWriter, r *http.Request) {
	var req monetizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID := userIDFromContext(r.Context())
	var err error
	if req.Enabled {
		err = s.subscriptions.EnableMonetization(r.Context(), userID)
	} else {
		err = s.subscriptions.DisableMonetization(r.Context(), userID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
