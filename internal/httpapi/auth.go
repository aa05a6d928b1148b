package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
	"github.com/Xstatic72/alphasis/internal/session"
)

type loginRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

func (a *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeErr(c, apperr.Invalidf("userId, password and role are required"))
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		a.writeErr(c, apperr.Invalidf("%s", err.Error()))
		return
	}

	ident, err := a.dir.Authenticate(c.Request.Context(), req.UserID, req.Password, role)
	if err != nil {
		a.writeErr(c, err)
		return
	}

	token, err := a.sessions.Issue(ident.UserID, ident.Role, ident.Name)
	if err != nil {
		a.writeErr(c, err)
		return
	}

	secure := a.cfg.Env == "prod" || a.cfg.Env == "production"
	c.SetCookie(a.cfg.SessionCookie, token, int(a.sessions.TTL().Seconds()), "/", "", secure, true)
	c.JSON(http.StatusOK, gin.H{
		"userId": ident.UserID,
		"role":   ident.Role,
		"name":   ident.Name,
	})
}

func (a *API) logout(c *gin.Context) {
	claims, ok := session.FromContext(c)
	if ok {
		if err := a.sessions.Revoke(c.Request.Context(), claims); err != nil {
			a.writeErr(c, err)
			return
		}
	}
	c.SetCookie(a.cfg.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
