package httpapi

import (
	"net/http"

	"github.com/nozoku/nozoku-server/internal/server/models"
)

// meResponse is the account owner's private view, wallet included.
type meResponse struct {
	ID                  string                    `json:"id"`
	Email               string                    `json:"email"`
	DisplayName         string                    `json:"displayName"`
	Bio                 string                    `json:"bio"`
	AvatarKey           string                    `json:"avatarKey"`
	IsCreator           bool                      `json:"isCreator"`
	SubscriptionMode    models.SubscriptionMode   `json:"subscriptionMode"`
	SubscriptionPrice   int64                     `json:"subscriptionPrice"`
	WalletBalance       int64                     `json:"walletBalance"`
	VerificationStatus  models.VerificationStatus `json:"verificationStatus"`
	MonetizationEnabled bool                      `json:"monetizationEnabled"`
	Settings            models.Settings           `json:"settings"`
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetUser(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		ID:                  user.ID,
		Email:               user.Email,
		DisplayName:         user.DisplayName,
		Bio:                 user.Bio,
		AvatarKey:           user.AvatarKey,
		IsCreator:           user.IsCreator,
		SubscriptionMode:    user.SubscriptionMode,
		SubscriptionPrice:   user.SubscriptionPrice,
		WalletBalance:       user.WalletBalance,
		VerificationStatus:  user.VerificationStatus,
		MonetizationEnabled: user.MonetizationEnabled,
		Settings:            user.Settings,
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.users.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
	AvatarKey   string `json:"avatarKey"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID := userIDFromContext(r.Context())
	if err := s.users.UpdateProfile(r.Context(), userID, req.DisplayName, req.Bio, req.AvatarKey); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetUser(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, err)
		return
	}

	userID := userIDFromContext(r.Context())
	if err := s.users.UpdateSettings(r.Context(), userID, settings); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type creatorOptionsRequest struct {
	SubscriptionMode  models.SubscriptionMode `json:"subscriptionMode"`
	SubscriptionPrice int64                   `json:"subscriptionPrice"`
}

func (s *Server) handleUpdateCreatorOptions(w http.ResponseWriter, r *http.Request) {
	var req creatorOptionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID := userIDFromContext(r.Context())
	if err := s.users.UpdateCreatorOptions(r.Context(), userID, req.SubscriptionMode, req.SubscriptionPrice); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type countersResponse struct {
	UnreadConversations int `json:"unreadConversations"`
	UnreadNotifications int `json:"unreadNotifications"`
}

// handleCounters serves the badge counts shown in the navigation bar.
func (s *Server) handleCounters(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	conversations, err := s.messaging.UnreadMessageCount(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	notifications, err := s.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, countersResponse{
		UnreadConversations: conversations,
		UnreadNotifications: notifications,
	})
}
