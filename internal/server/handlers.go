package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vanshika/socialnet/internal/community"
	"github.com/vanshika/socialnet/internal/domain"
	"github.com/vanshika/socialnet/internal/repository"
	"github.com/vanshika/socialnet/internal/service"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.SocialService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.SocialService) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

func (h *APIHandlers) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createUser(w, r)
	case http.MethodGet:
		h.listUsers(w, r)
	case http.MethodDelete:
		h.deleteUser(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

func (h *APIHandlers) handleFriends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	key := keyFromQuery(r)
	friends, err := h.service.Friends(r.Context(), key)
	if err != nil {
		h.writeServiceError(w, err, "failed to fetch friends", "username", key.Username)
		return
	}
	respondJSON(w, http.StatusOK, friendsResponse{
		User:    key.Username,
		Friends: toUserResponses(friends),
	})
}

func (h *APIHandlers) handleFriendships(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodPost, http.MethodDelete)
		return
	}

	var payload service.FriendshipInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.Method == http.MethodDelete {
		if err := h.service.RemoveFriendship(r.Context(), payload); err != nil {
			h.writeServiceError(w, err, "failed to remove friendship")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.service.AddFriendship(r.Context(), payload); err != nil {
		h.writeServiceError(w, err, "failed to add friendship")
		return
	}
	respondJSON(w, http.StatusCreated, statusResponse{Status: "ok"})
}

func (h *APIHandlers) handleCommunityCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	count, err := h.service.CountCommunities(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to count communities")
		return
	}
	respondJSON(w, http.StatusOK, communityCountResponse{Communities: count})
}

func (h *APIHandlers) handleMostActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	users, err := h.service.MostActiveCommunity(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to compute most active community")
		return
	}
	respondJSON(w, http.StatusOK, mostActiveResponse{Size: len(users), Users: toUserResponses(users)})
}

func (h *APIHandlers) handleCommunityReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	report, err := h.service.Report(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to build community report")
		return
	}
	respondJSON(w, http.StatusOK, reportResponse{
		Communities: report.Communities,
		MostActive: mostActiveResponse{
			Size:  len(report.MostActive),
			Users: toUserResponses(report.MostActive),
		},
	})
}

func (h *APIHandlers) createUser(w http.ResponseWriter, r *http.Request) {
	var payload service.UserInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.AddUser(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, err, "failed to add user", "username", payload.Username)
		return
	}
	respondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *APIHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to list users")
		return
	}
	respondJSON(w, http.StatusOK, listUsersResponse{Total: len(users), Items: toUserResponses(users)})
}

func (h *APIHandlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	var creds service.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.DeleteAccount(r.Context(), creds); err != nil {
		h.writeServiceError(w, err, "failed to remove user", "username", creds.Username)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps service and store errors onto HTTP statuses. Only
// unexpected failures are logged.
func (h *APIHandlers) writeServiceError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, append([]any{"error", err}, attrs...)...)
		writeError(w, status, msg)
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, repository.ErrSelfFriendship):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrUserNotFound), errors.Is(err, repository.ErrFriendshipNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrUserExists), errors.Is(err, repository.ErrFriendshipExists):
		return http.StatusConflict
	case errors.Is(err, community.ErrSearchBudget):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func keyFromQuery(r *http.Request) service.UserKey {
	query := r.URL.Query()
	return service.UserKey{Email: query.Get("email"), Username: query.Get("username")}
}

// --- Response DTOs ---

type userResponse struct {
	Identity  string `json:"identity"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type listUsersResponse struct {
	Total int            `json:"total"`
	Items []userResponse `json:"items"`
}

type friendsResponse struct {
	User    string         `json:"user"`
	Friends []userResponse `json:"friends"`
}

type communityCountResponse struct {
	Communities int `json:"communities"`
}

type mostActiveResponse struct {
	Size  int            `json:"size"`
	Users []userResponse `json:"users"`
}

type reportResponse struct {
	Communities int                `json:"communities"`
	MostActive  mostActiveResponse `json:"mostActive"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		Identity:  u.Identity.String(),
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

func toUserResponses(users []domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
