// Package auth gates organizer-only operations. Organizers sign in with
// username and password and receive a signed JWT in an HTTP-only cookie;
// a middleware guard validates it in front of every gated route.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcosta87/eventos/internal/model"
	"github.com/mcosta87/eventos/internal/repository"
)

// TokenDuration is how long an issued session token stays valid.
const TokenDuration = 24 * time.Hour

const cookieName = "auth_token"

// OrganizerStore is the persistence surface for organizer accounts.
type OrganizerStore interface {
	GetByUsername(ctx context.Context, username string) (*model.Organizer, error)
	Create(ctx context.Context, username, passwordHash string) (*model.Organizer, error)
	Count(ctx context.Context) (int, error)
}

// Handler owns the login/logout endpoints and the session middleware.
type Handler struct {
	store  OrganizerStore
	secret []byte
	log    *zap.Logger
}

// NewHandler constructs an auth Handler.
func NewHandler(store OrganizerStore, secret string, log *zap.Logger) *Handler {
	return &Handler{store: store, secret: []byte(secret), log: log}
}

// GenerateToken signs a session token for the given organizer.
func (h *Handler) GenerateToken(organizerID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": organizerID,
		"exp": time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}

func (h *Handler) parseToken(tokenString string) (string, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return h.secret, nil
	})
	if err != nil || !token.Valid {
		return "", time.Time{}, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}, errors.New("invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", time.Time{}, errors.New("invalid token subject")
	}
	var exp time.Time
	if expFloat, ok := claims["exp"].(float64); ok {
		exp = time.Unix(int64(expFloat), 0)
	}
	return sub, exp, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
// On success it sets the session cookie and returns the organizer.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	organizer, err := h.store.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same answer as a wrong password; do not leak which usernames exist.
			writeError(w, http.StatusUnauthorized, "usuário ou senha inválidos")
			return
		}
		h.log.Error("login lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "falha ao autenticar")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(organizer.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "usuário ou senha inválidos")
		return
	}

	token, err := h.GenerateToken(organizer.ID)
	if err != nil {
		h.log.Error("token generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "falha ao autenticar")
		return
	}
	http.SetCookie(w, sessionCookie(token, time.Now().Add(TokenDuration)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(organizer)
}

// Logout handles POST /auth/logout by expiring the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, sessionCookie("", time.Unix(0, 0)))
	w.WriteHeader(http.StatusNoContent)
}

func sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     cookieName,
		Value:    value,
		Expires:  expires,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}

// EnsureOrganizer creates the bootstrap organizer account when none exists.
// With empty credentials it does nothing, which leaves every gated route
// unreachable until an account is provisioned.
func EnsureOrganizer(ctx context.Context, store OrganizerStore, username, password string, log *zap.Logger) error {
	if username == "" || password == "" {
		log.Warn("no bootstrap organizer configured")
		return nil
	}
	n, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count organizers: %w", err)
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}
	if _, err := store.Create(ctx, username, string(hash)); err != nil {
		return fmt.Errorf("create bootstrap organizer: %w", err)
	}
	log.Info("bootstrap organizer created", zap.String("username", username))
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}
