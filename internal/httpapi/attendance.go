package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/metrics"
	"github.com/Xstatic72/alphasis/internal/model"
	"github.com/Xstatic72/alphasis/internal/session"
)

const dateLayout = "2006-01-02"

// listAttendance returns role-appropriate attendance: the owning teacher's
// subjects, the student's own rows, or a parent's children.
func (a *API) listAttendance(c *gin.Context) {
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
		c.JSON(http.StatusOK, gin.H{"attendance": records, "subjects": subjects})

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
		c.JSON(http.StatusOK, gin.H{"attendance": records})

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
		records, err := a.att.ListForStudents(ctx, ids)
		if err != nil {
			a.writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"attendance": records, "children": children})

	default:
		a.writeErr(c, apperr.ErrForbidden)
	}
}

type markAttendanceRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	SubjectID string `json:"subjectId" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Status    string `json:"status" binding:"required"`
}

func (a *API) markAttendance(c *gin.Context) {
	var req markAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeErr(c, apperr.Invalidf("studentId, subjectId, date and status are required"))
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		a.writeErr(c, apperr.Invalidf("date must be YYYY-MM-DD"))
		return
	}
	status, err := model.ParseAttendanceStatus(req.Status)
	if err != nil {
		a.writeErr(c, apperr.Invalidf("%s", err.Error()))
		return
	}

	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()
	teacher, err := a.dir.ResolveTeacher(ctx, claims.UserID)
	if err != nil {
		a.writeErr(c, err)
		return
	}

	rec, created, err := a.att.Mark(ctx, teacher.TeacherID, req.StudentID, req.SubjectID, date, status)
	if err != nil {
		metrics.AttendanceWrites.WithLabelValues("error").Inc()
		a.writeErr(c, err)
		return
	}
	if created {
		metrics.AttendanceWrites.WithLabelValues("created").Inc()
		c.JSON(http.StatusCreated, rec)
		return
	}
	metrics.AttendanceWrites.WithLabelValues("updated").Inc()
	c.JSON(http.StatusOK, rec)
}

type updateAttendanceRequest struct {
	AttendanceID string `json:"attendanceId" binding:"required"`
	Status       string `json:"status" binding:"required"`
}

func (a *API) updateAttendance(c *gin.Context) {
	var req updateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeErr(c, apperr.Invalidf("attendanceId and status are required"))
		return
	}
	status, err := model.ParseAttendanceStatus(req.Status)
	if err != nil {
		a.writeErr(c, apperr.Invalidf("%s", err.Error()))
		return
	}

	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()
	teacher, err := a.dir.ResolveTeacher(ctx, claims.UserID)
	if err != nil {
		a.writeErr(c, err)
		return
	}

	rec, err := a.att.Update(ctx, teacher.TeacherID, req.AttendanceID, status)
	if err != nil {
		a.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (a *API) deleteAttendance(c *gin.Context) {
	attendanceID := c.Query("attendanceId")
	if attendanceID == "" {
		a.writeErr(c, apperr.Invalidf("attendanceId is required"))
		return
	}

	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()
	teacher, err := a.dir.ResolveTeacher(ctx, claims.UserID)
	if err != nil {
		a.writeErr(c, err)
		return
	}

	if err := a.att.Delete(ctx, teacher.TeacherID, attendanceID); err != nil {
		a.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attendance record deleted"})
}

// markSessionRoster returns the editable roster partition for one
// (subject, date): students without a persisted record, all pending.
func (a *API) markSessionRoster(c *gin.Context) {
	subjectID := c.Query("subjectId")
	dateStr := c.Query("date")
	if subjectID == "" || dateStr == "" {
		a.writeErr(c, apperr.Invalidf("subjectId and date are required"))
		return
	}
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		a.writeErr(c, apperr.Invalidf("date must be YYYY-MM-DD"))
		return
	}

	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()
	teacher, err := a.dir.ResolveTeacher(ctx, claims.UserID)
	if err != nil {
		a.writeErr(c, err)
		return
	}

	sess, err := a.att.BuildSession(ctx, teacher.TeacherID, subjectID, date)
	if err != nil {
		a.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subjectId":   subjectID,
		"date":        dateStr,
		"pending":     sess.Pending(),
		"canFinalize": sess.CanFinalize(),
	})
}

type finalizeRequest struct {
	SubjectID string `json:"subjectId" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Marks     []struct {
		StudentID string `json:"studentId" binding:"required"`
		Status    string `json:"status" binding:"required"`
	} `json:"marks" binding:"required"`
}

// finalizeMarkSession submits every marked student independently. The
// response always carries both lists; partial failure is a 200 whose failed
// list names the students to redo.
func (a *API) finalizeMarkSession(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeErr(c, apperr.Invalidf("subjectId, date and marks are required"))
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		a.writeErr(c, apperr.Invalidf("date must be YYYY-MM-DD"))
		return
	}
	marks := make(map[string]model.AttendanceStatus, len(req.Marks))
	for _, m := range req.Marks {
		status, err := model.ParseAttendanceStatus(m.Status)
		if err != nil {
			a.writeErr(c, apperr.Invalidf("%s: %s", m.StudentID, err.Error()))
			return
		}
		marks[m.StudentID] = status
	}

	claims, _ := session.FromContext(c)
	ctx := c.Request.Context()
	teacher, err := a.dir.ResolveTeacher(ctx, claims.UserID)
	if err != nil {
		a.writeErr(c, err)
		return
	}

	result, err := a.att.Finalize(ctx, teacher.TeacherID, req.SubjectID, date, marks)
	if err != nil {
		a.writeErr(c, err)
		return
	}
	metrics.FinalizeBatches.Inc()
	metrics.FinalizeFailures.Add(float64(len(result.Failed)))
	c.JSON(http.StatusOK, result)
}
