package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/relaychat/server/internal/services"
	"github.com/relaychat/server/internal/store"
	"github.com/relaychat/server/internal/token"
	"github.com/relaychat/server/internal/validate"
	"github.com/relaychat/server/types"
	"golang.org/x/crypto/bcrypt"
)

// authCookieName is the cookie carrying the session token.
const authCookieName = "authToken"

// invalidCredentials is the single message returned for both unknown
// usernames and wrong passwords, so responses reveal nothing about which
// usernames exist.
const invalidCredentials = "Username or Password Invalid"

// AuthHandler provides registration, login, logout and session validation.
type AuthHandler struct {
	userService *services.UserService
	tokens      *token.Manager
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, tokens *token.Manager) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
	}
}

// AuthRouter registers the auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, tokens *token.Manager) {
	handler := NewAuthHandler(userService, tokens)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.Get("/api/auth/validate", handler.Validate)
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// PublicUser is the client-safe projection of a user record.
type PublicUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type RegisterResponse struct {
	Message string     `json:"message"`
	User    PublicUser `json:"user"`
}

type SessionResponse struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	Message         string      `json:"message,omitempty"`
	User            *PublicUser `json:"user,omitempty"`
}

// Register creates a new user account. It does not authenticate the caller;
// a freshly registered client still has to log in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	if errs := validate.Registration(req.Username, req.Password, req.ConfirmPassword); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	// Fast path only: the unique constraint in the store is what actually
	// closes the race between two concurrent registrations.
	if _, err := h.userService.GetByUsername(r.Context(), req.Username); err == nil {
		writeMessage(w, http.StatusBadRequest, "Username is already taken")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("register: username lookup failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("register: hashing failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	user, err := h.userService.Create(r.Context(), types.User{
		Username:     req.Username,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeMessage(w, http.StatusBadRequest, "Username is already taken")
			return
		}
		log.Printf("register: create failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message: "User created successfully",
		User:    PublicUser{ID: user.ID, Username: user.Username},
	})
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	// Credentials that could never have been registered fail the same way
	// as wrong ones.
	if !validate.Login(req.Username, req.Password) {
		writeMessage(w, http.StatusUnauthorized, invalidCredentials)
		return
	}

	user, err := h.userService.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusUnauthorized, invalidCredentials)
			return
		}
		log.Printf("login: username lookup failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Error logging in")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeMessage(w, http.StatusUnauthorized, invalidCredentials)
		return
	}

	signed, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Printf("login: token issue failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Server misconfiguration")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(token.DefaultTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, SessionResponse{
		IsAuthenticated: true,
		Message:         "Logged in successfully.",
	})
}

// Validate reports whether the request carries a valid session. It never
// returns an error status: any missing, malformed or expired token simply
// yields isAuthenticated false.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(authCookieName)
	if err != nil {
		writeJSON(w, http.StatusOK, SessionResponse{IsAuthenticated: false})
		return
	}

	userID, err := h.tokens.Verify(cookie.Value)
	if err != nil {
		writeJSON(w, http.StatusOK, SessionResponse{IsAuthenticated: false})
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("validate: user lookup failed: %v", err)
		}
		writeJSON(w, http.StatusOK, SessionResponse{IsAuthenticated: false})
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		IsAuthenticated: true,
		User:            &PublicUser{ID: user.ID, Username: user.Username},
	})
}

// Logout clears the session cookie. The token itself stays valid until it
// expires; there is no server-side revocation.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, SessionResponse{
		IsAuthenticated: false,
		Message:         "Logged out successfully.",
	})
}
