package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
	"github.com/Xstatic72/alphasis/internal/session"
)

func (a *API) listRegistrations(c *gin.Context) {
	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()

	switch claims.Role {
	case model.RoleStudent:
		student, err := a.dir.ResolveStudent(ctx, claims.UserID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		list, err := a.regs.ListForStudent(ctx, student.AdmissionNumber)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"registrations": list})

	case model.RoleParent:
		_, children, err := a.dir.ResolveParent(ctx, claims.UserID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		byChild := make(map[string][]model.Registration, len(children))
		for _, ch := range children {
			list, err := a.regs.ListForStudent(ctx, ch.AdmissionNumber)
			if err != nil {
				a.writeErr(c, err)
				return
			}
			byChild[ch.AdmissionNumber] = list
		}
		c.JSON(http.StatusOK, gin.H{"registrations": byChild, "children": children})

	default:
		a.writeErr(c, apperr.ErrForbidden)
	}
}

type registerRequest struct {
	SubjectID string `json:"subjectId" binding:"required"`
	Term      string `json:"term" binding:"required"`
}

func (a *API) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeErr(c, apperr.Invalidf("subjectId and term are required"))
		return
	}

	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()
	student, err := a.dir.ResolveStudent(ctx, claims.UserID)
	if err != nil {
		a.writeErr(c, err)
		return
	}

	reg, err := a.regs.Register(ctx, student.AdmissionNumber, req.SubjectID, req.Term)
	if err != nil {
		a.writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

func (a *API) dropRegistration(c *gin.Context) {
	registrationID := c.Param("registrationId")

	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()
	student, err := a.dir.ResolveStudent(ctx, claims.UserID)
	if err != nil {
		a.writeErr(c, err)
		return
	}

	if err := a.regs.Drop(ctx, student.AdmissionNumber, registrationID); err != nil {
		a.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "registration dropped"})
}
