package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
	"github.com/Xstatic72/alphasis/internal/session"
)

func (a *API) listClasses(c *gin.Context) {
	list, err := a.lookup.ListClasses(c.Request.Context())
	if err != nil {
		a.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": list})
}

// listSubjects scopes to the caller: teachers see what they teach, students
// see their class level's offering, parents see everything.
func (a *API) listSubjects(c *gin.Context) {
	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()

	switch claims.Role {
	case model.RoleTeacher:
		list, err := a.lookup.ListSubjectsByTeacher(ctx, claims.UserID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"subjects": list})

	case model.RoleStudent:
		student, err := a.dir.ResolveStudent(ctx, claims.UserID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		list, err := a.lookup.ListSubjectsByClassLevel(ctx, student.ClassLevel)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"subjects": list})

	default:
		list, err := a.lookup.ListSubjects(ctx)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"subjects": list})
	}
}

func (a *API) listTeachers(c *gin.Context) {
	list, err := a.lookup.ListTeachers(c.Request.Context())
	if err != nil {
		a.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teachers": list})
}

// listStudents scopes to the caller: a teacher sees students registered in
// their subjects' class levels, a parent sees their children, a student
// sees classmates.
func (a *API) listStudents(c *gin.Context) {
	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()

	switch claims.Role {
	case model.RoleTeacher:
		subjects, err := a.lookup.ListSubjectsByTeacher(ctx, claims.UserID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		seen := make(map[string]bool)
		var out []model.Student
		for _, sub := range subjects {
			students, err := a.lookup.ListStudentsByClassLevel(ctx, sub.ClassLevel)
			if err != nil {
				a.writeErr(c, err)
				return
			}
			for _, st := range students {
				if !seen[st.AdmissionNumber] {
					seen[st.AdmissionNumber] = true
					out = append(out, st)
				}
			}
		}
		c.JSON(http.StatusOK, gin.H{"students": out})

	case model.RoleStudent:
		student, err := a.dir.ResolveStudent(ctx, claims.UserID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		list, err := a.lookup.ListStudentsByClassLevel(ctx, student.ClassLevel)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"students": list})

	case model.RoleParent:
		_, children, err := a.dir.ResolveParent(ctx, claims.UserID)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"students": children})

	default:
		a.writeErr(c, apperr.ErrForbidden)
	}
}

func (a *API) listNotifications(c *gin.Context) {
	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()

	parent, _, err := a.dir.ResolveParent(ctx, claims.UserID)
	if err != nil {
		a.writeErr(c, err)
		return
	}
	list, err := a.notes.ListForParent(ctx, parent.ParentID)
	if err != nil {
		a.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}
