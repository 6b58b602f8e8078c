package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/verident/registry/pkg/common/logger"
	"github.com/verident/registry/pkg/common/models"
	"github.com/verident/registry/pkg/identity"
)

// AccountService is what the auth routes need from the authenticator.
type AccountService interface {
	SignUp(ctx context.Context, username, password string) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.User, error)
}

type TokenIssuer interface {
	IssueToken(user models.User) (string, error)
}

type AuthHandler struct {
	service     AccountService
	tokenSigner TokenIssuer
}

func NewAuthHandler(service AccountService, tokenSigner TokenIssuer) *AuthHandler {
	return &AuthHandler{service: service, tokenSigner: tokenSigner}
}

// Register wires the two unauthenticated routes. The access gate is never
// applied here.
func (h *AuthHandler) Register(r *mux.Router) {
	r.HandleFunc("/signup", h.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/signin", h.handleSignin).Methods(http.MethodPost)
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err := h.service.SignUp(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentialFormat):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, identity.ErrUsernameTaken):
			respondError(w, http.StatusConflict, "Username already exists")
		default:
			logger.Log.WithError(err).Error("Signup failed")
			respondError(w, http.StatusInternalServerError, "Error creating user")
		}
		return
	}

	respondJSON(w, http.StatusCreated, models.MessageResponse{Message: "User created successfully"})
}

func (h *AuthHandler) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req models.SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentialFormat),
			errors.Is(err, identity.ErrInvalidCredentials):
			respondError(w, http.StatusBadRequest, "Incorrect credentials")
		default:
			logger.Log.WithError(err).Error("Signin failed")
			respondError(w, http.StatusInternalServerError, "Error signing in")
		}
		return
	}

	token, err := h.tokenSigner.IssueToken(user)
	if err != nil {
		logger.Log.WithError(err).Error("Failed issuing token")
		respondError(w, http.StatusInternalServerError, "Error signing in")
		return
	}

	respondJSON(w, http.StatusOK, models.TokenResponse{Token: token})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.MessageResponse{Message: message})
}
