// Package rest is the HTTP transport: a gin router over the session service.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/logging"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/auth"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/services"
	"github.com/gin-gonic/gin"
)

// SessionAPI is what the handlers need from services.SessionService.
type SessionAPI interface {
	Register(ctx context.Context, fullName, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string, rawBatch []byte) (int, error)
	GuestSync(ctx context.Context, fullName, email, rawBatch string) (int, error)
	Authenticate(token string) (*auth.Claims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

type Handler struct {
	svc           SessionAPI
	log           logging.Logger
	secureCookies bool
}

func NewHandler(svc SessionAPI, log logging.Logger, secureCookies bool) *Handler {
	if log == nil {
		log = logging.Nop{}
	}
	return &Handler{svc: svc, log: log, secureCookies: secureCookies}
}

type registerRequest struct {
	FullName string `json:"fullName" binding:"required,notblank"`
	Email    string `json:"email" binding:"required,notblank"`
	Password string `json:"password" binding:"required,notblank"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,notblank"`
	Password string `json:"password" binding:"required,notblank"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	TransactionsString string          `json:"transactions_string"`
	Transactions       json.RawMessage `json:"transactions"`
}

type guestSyncRequest struct {
	FullName           string `json:"fullName"`
	Email              string `json:"email"`
	TransactionsString string `json:"transactions_string"`
}

type userResponse struct {
	ID       string `json:"_id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type loginUserResponse struct {
	userResponse
	TransactionRecord []services.TransactionView `json:"transactionRecord"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    userResponse{ID: user.ID, Email: user.Email, FullName: user.FullName},
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setAuthCookies(c, res.Tokens.AccessToken, res.Tokens.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"accessToken":  res.Tokens.AccessToken,
		"refreshToken": res.Tokens.RefreshToken,
		"user": loginUserResponse{
			userResponse:      userResponse{ID: res.User.ID, Email: res.User.Email, FullName: res.User.FullName},
			TransactionRecord: res.Transactions,
		},
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !h.bindOptional(c, &req) {
		return
	}

	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(common.RefreshTokenCookieName)
	}

	pair, err := h.svc.Refresh(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setAuthCookies(c, pair.AccessToken, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"message":      "Token refreshed",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Logout accepts either a serialized "transactions_string" or an inline
// "transactions" array; the string wins when both are present.
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		writeError(c, common.ErrInvalidToken)
		return
	}

	var req logoutRequest
	if !h.bindOptional(c, &req) {
		return
	}

	var raw []byte
	switch {
	case strings.TrimSpace(req.TransactionsString) != "":
		raw = []byte(req.TransactionsString)
	case len(req.Transactions) > 0 && !bytes.Equal(bytes.TrimSpace(req.Transactions), []byte("null")):
		raw = req.Transactions
	}

	n, err := h.svc.Logout(c.Request.Context(), claims.UserID(), raw)
	if err != nil {
		writeError(c, err)
		return
	}

	h.clearAuthCookies(c, common.AccessTokenCookieName, common.RefreshTokenCookieName)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful", "transactionsProcessed": n})
}

// GuestSync serves the legacy unauthenticated logout-sync.
func (h *Handler) GuestSync(c *gin.Context) {
	var req guestSyncRequest
	if !h.bindOptional(c, &req) {
		return
	}

	n, err := h.svc.GuestSync(c.Request.Context(), req.FullName, req.Email, req.TransactionsString)
	if err != nil {
		writeError(c, err)
		return
	}

	h.clearAuthCookies(c, common.RefreshTokenCookieName)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful", "transactionsProcessed": n})
}

// bind decodes a required JSON body and runs binding validation.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.bindFailed(c, err)
		return false
	}
	return true
}

// bindOptional decodes a JSON body if one was sent; an empty body leaves
// dst zeroed.
func (h *Handler) bindOptional(c *gin.Context, dst any) bool {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.bindFailed(c, err)
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.bindFailed(c, err)
		return false
	}
	return true
}

func (h *Handler) bindFailed(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeMessage(c, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	if msg, ok := bindingMessage(err); ok {
		writeMessage(c, http.StatusBadRequest, msg)
		return
	}
	h.log.Debug(c.Request.Context(), "bad request body", "error", err)
	writeMessage(c, http.StatusBadRequest, "Invalid request body")
}
