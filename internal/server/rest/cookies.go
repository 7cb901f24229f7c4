package rest

import (
	"net/http"
	"time"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/common"
	"github.com/gin-gonic/gin"
)

func (h *Handler) setAuthCookies(c *gin.Context, access, refresh string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(common.AccessTokenCookieName, access, seconds(h.svc.AccessTTL()), "/", "", h.secureCookies, true)
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(common.RefreshTokenCookieName, refresh, seconds(h.svc.RefreshTTL()), "/", "", h.secureCookies, true)
}

func (h *Handler) clearAuthCookies(c *gin.Context, names ...string) {
	for _, name := range names {
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(name, "", -1, "/", "", h.secureCookies, true)
	}
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
