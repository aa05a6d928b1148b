package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
	"github.com/Xstatic72/alphasis/internal/session"
)

func (a *API) listGrades(c *gin.Context) {
	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()

	switch claims.Role {
	case model.RoleTeacher:
		teacher, err := a.dir.ResolveTeacher(ctx, claims.UserID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		list, err := a.grades.ListForTeacher(ctx, teacher.TeacherID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"grades": list})

	case model.RoleStudent:
		student, err := a.dir.ResolveStudent(ctx, claims.UserID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		list, err := a.grades.ListForStudents(ctx, []string{student.AdmissionNumber})
		if err != nil {
			a.writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"grades": list})

	case model.RoleParent:
		_, children, err := a.dir.ResolveParent(ctx, claims.UserID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		ids := make([]string, len(children))
		for i, ch := range children {
			ids[i] = ch.AdmissionNumber
		}
		list, err := a.grades.ListForStudents(ctx, ids)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"grades": list, "children": children})

	default:
		a.writeErr(c, apperr.ErrForbidden)
	}
}

type gradeRequest struct {
	StudentID string  `json:"studentId" binding:"required"`
	SubjectID string  `json:"subjectId" binding:"required"`
	Term      string  `json:"term" binding:"required"`
	CAScore   float64 `json:"caScore"`
	ExamScore float64 `json:"examScore"`
}

func (a *API) recordGrade(c *gin.Context) {
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeErr(c, apperr.Invalidf("studentId, subjectId and term are required"))
		return
	}

	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()
	teacher, err := a.dir.ResolveTeacher(ctx, claims.UserID)
	if err != nil {
		a.writeErr(c, err)
		return
	}

	g, err := a.grades.Record(ctx, teacher.TeacherID, model.Grade{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		Term:      req.Term,
		CAScore:   req.CAScore,
		ExamScore: req.ExamScore,
	})
	if err != nil {
		a.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (a *API) deleteGrade(c *gin.Context) {
	gradeID := c.Query("gradeId")
	if gradeID == "" {
		a.writeErr(c, apperr.Invalidf("gradeId is required"))
		return
	}

	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()
	teacher, err := a.dir.ResolveTeacher(ctx, claims.UserID)
	if err != nil {
		a.writeErr(c, err)
		return
	}

	if err := a.grades.Delete(ctx, teacher.TeacherID, gradeID); err != nil {
		a.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "grade deleted"})
}
