package session

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/docspot/docspot-api/internal/observability/metrics"
	"github.com/docspot/docspot-api/pkg/logging"
)

// Account is the slice of a user document that login needs. The doctors and
// patients repositories both satisfy the lookup through small adapters in
// the router.
type Account struct {
	ID       string
	Password string
}

// AccountLookup finds an account by its login username.
type AccountLookup func(ctx context.Context, username string) (Account, error)

// ErrBadCredentials is returned for unknown users and wrong passwords alike.
var ErrBadCredentials = errors.New("invalid username or password")

// Handler handles login and logout requests
type Handler struct {
	issuer   *TokenIssuer
	store    *Store
	doctors  AccountLookup
	patients AccountLookup

	adminEmail    string
	adminPassword string

	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewHandler creates a new auth handler
func NewHandler(issuer *TokenIssuer, store *Store, doctorLookup, patientLookup AccountLookup, adminEmail, adminPassword string, m *metrics.BookingMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		issuer:        issuer,
		store:         store,
		doctors:       doctorLookup,
		patients:      patientLookup,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		metrics:       m,
		logger:        logger,
	}
}

// LoginRequest carries the credentials and the role to log in as.
type LoginRequest struct {
	Role     Role   `json:"role"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token for subsequent requests.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// Login handles POST /auth/login requests for doctors and patients
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var lookup AccountLookup
	switch req.Role {
	case RoleDoctor:
		lookup = h.doctors
	case RolePatient, "":
		req.Role = RolePatient
		lookup = h.patients
	default:
		http.Error(w, "role must be \"patient\" or \"doctor\"", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		h.metrics.ObserveLogin(string(req.Role), "failure")
		http.Error(w, ErrBadCredentials.Error(), http.StatusUnauthorized)
		return
	}

	account, err := lookup(r.Context(), req.Username)
	if err != nil || !passwordsMatch(account.Password, req.Password) {
		h.metrics.ObserveLogin(string(req.Role), "failure")
		http.Error(w, ErrBadCredentials.Error(), http.StatusUnauthorized)
		return
	}

	h.issue(w, r, account.ID, req.Role)
}

// AdminLogin handles POST /auth/admin/login requests. Admin credentials live
// in configuration, not in a collection.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if h.adminPassword == "" {
		h.logger.Warn("admin login rejected: no admin password configured")
		http.Error(w, ErrBadCredentials.Error(), http.StatusUnauthorized)
		return
	}

	if !passwordsMatch(h.adminEmail, req.Email) || !passwordsMatch(h.adminPassword, req.Password) {
		h.metrics.ObserveLogin(string(RoleAdmin), "failure")
		http.Error(w, ErrBadCredentials.Error(), http.StatusUnauthorized)
		return
	}

	h.issue(w, r, "admin", RoleAdmin)
}

// Logout handles POST /auth/logout requests, revoking the current token
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := FromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return
	}

	if err := h.store.Revoke(r.Context(), sess.TokenID); err != nil {
		h.logger.Error("failed to revoke session", "error", err, "user_id", sess.UserID)
		http.Error(w, "failed to log out", http.StatusInternalServerError)
		return
	}

	h.logger.Info("session revoked", "user_id", sess.UserID, "role", sess.Role)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, userID string, role Role) {
	token, tokenID, err := h.issuer.Issue(userID, role)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		http.Error(w, "failed to log in", http.StatusInternalServerError)
		return
	}

	sess := Session{UserID: userID, Role: role, TokenID: tokenID}
	if err := h.store.Register(r.Context(), sess, h.issuer.TTL()); err != nil {
		h.logger.Error("failed to register session", "error", err)
		http.Error(w, "failed to log in", http.StatusInternalServerError)
		return
	}

	h.metrics.ObserveLogin(string(role), "success")
	h.logger.Info("user logged in", "user_id", userID, "role", role)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{Token: token, UserID: userID, Role: role})
}

// passwordsMatch compares in constant time. An empty value on either side
// never matches: accounts without a stored password cannot be logged into.
func passwordsMatch(stored, given string) bool {
	if stored == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
