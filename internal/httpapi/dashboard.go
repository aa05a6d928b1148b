package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
	"github.com/Xstatic72/alphasis/internal/session"
)

// dashboard summarizes the caller's slice of the system: counts only, the
// detail lives behind the resource routes.
func (a *API) dashboard(c *gin.Context) {
	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()

	switch claims.Role {
	case model.RoleTeacher:
		teacher, err := a.dir.ResolveTeacher(ctx, claims.UserID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		records, subjects, err := a.att.ListForTeacher(ctx, teacher.TeacherID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"role":              claims.Role,
			"name":              claims.Name,
			"subjectCount":      len(subjects),
			"attendanceRecords": len(records),
		})

	case model.RoleStudent:
		student, err := a.dir.ResolveStudent(ctx, claims.UserID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		records, err := a.att.ListForStudents(ctx, []string{student.AdmissionNumber})
		if err != nil {
			a.writeErr(c, err)
			return
		}
		present := 0
		for _, r := range records {
			if r.Status == model.StatusPresent {
				present++
			}
		}
		rate := 0.0
		if len(records) > 0 {
			rate = float64(present) / float64(len(records)) * 100
		}
		c.JSON(http.StatusOK, gin.H{
			"role":           claims.Role,
			"name":           claims.Name,
			"classLevel":     student.ClassLevel,
			"attendanceRate": rate,
		})

	case model.RoleParent:
		parent, children, err := a.dir.ResolveParent(ctx, claims.UserID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		notes, err := a.notes.ListForParent(ctx, parent.ParentID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"role":          claims.Role,
			"name":          claims.Name,
			"children":      len(children),
			"notifications": len(notes),
		})

	default:
		a.writeErr(c, apperr.ErrForbidden)
	}
}
