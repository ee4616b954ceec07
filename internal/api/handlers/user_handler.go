// server/internal/api/handlers/user_handler.go
package handlers

import (
	"net/http"

	"magnova-scm-api-server/internal/identity"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	Identity *identity.Service
}

func (h *UserHandler) Register(c *gin.Context) {
	var req identity.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.Identity.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req identity.LoginInput
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.Identity.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	u, err := h.Identity.Me(c.Request.Context(), pr.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
