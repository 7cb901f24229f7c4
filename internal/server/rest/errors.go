package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"github.com/gin-gonic/gin"
)

const internalMessage = "Internal server error"

// statusFor maps service errors to an HTTP status and the message shown to
// clients. Anything unrecognized is a sanitized 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		msg := strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
		return http.StatusBadRequest, msg
	case errors.Is(err, common.ErrorDuplicateUser):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, common.ErrorNoValidTransactions):
		return http.StatusBadRequest, "No valid transactions found in the provided data"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired"
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid or revoked token"
	default:
		return http.StatusInternalServerError, internalMessage
	}
}

func writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

func writeMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}
