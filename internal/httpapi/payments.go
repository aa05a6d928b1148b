package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
	"github.com/Xstatic72/alphasis/internal/session"
)

// ownStudentIDs resolves the student IDs the acting session may touch:
// the student themself, or every child of the acting parent.
func (a *API) ownStudentIDs(c *gin.Context) ([]string, error) {
	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()

	switch claims.Role {
	case model.RoleStudent:
		student, err := a.dir.ResolveStudent(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		return []string{student.AdmissionNumber}, nil
	case model.RoleParent:
		_, children, err := a.dir.ResolveParent(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(children))
		for i, ch := range children {
			ids[i] = ch.AdmissionNumber
		}
		return ids, nil
	default:
		return nil, apperr.ErrForbidden
	}
}

func (a *API) listPayments(c *gin.Context) {
	ids, err := a.ownStudentIDs(c)
	if err != nil {
		a.writeErr(c, err)
		return
	}
	list, err := a.payments.ListForStudents(c.Request.Context(), ids)
	if err != nil {
		a.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": list})
}

type paymentRequest struct {
	StudentID string  `json:"studentId" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	Purpose   string  `json:"purpose" binding:"required"`
	Method    string  `json:"method"`
	Reference string  `json:"reference" binding:"required"`
}

func (a *API) recordPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeErr(c, apperr.Invalidf("studentId, amount, purpose and reference are required"))
		return
	}

	ids, err := a.ownStudentIDs(c)
	if err != nil {
		a.writeErr(c, err)
		return
	}
	allowed := false
	for _, id := range ids {
		if id == req.StudentID {
			allowed = true
			break
		}
	}
	if !allowed {
		a.writeErr(c, apperr.Forbiddenf("cannot pay for student %s", req.StudentID))
		return
	}

	method := req.Method
	if method == "" {
		method = "transfer"
	}
	p, err := a.payments.Record(c.Request.Context(), req.StudentID, req.Amount, req.Purpose, method, req.Reference)
	if err != nil {
		a.writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
