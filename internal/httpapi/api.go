// Package httpapi wires the gin router: middleware, route groups and the
// per-resource handlers. Role gating happens at the group level; ownership
// gating happens in the services.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xstatic72/alphasis/internal/attendance"
	"github.com/Xstatic72/alphasis/internal/config"
	"github.com/Xstatic72/alphasis/internal/directory"
	"github.com/Xstatic72/alphasis/internal/grades"
	"github.com/Xstatic72/alphasis/internal/httpmiddleware"
	"github.com/Xstatic72/alphasis/internal/metrics"
	"github.com/Xstatic72/alphasis/internal/model"
	"github.com/Xstatic72/alphasis/internal/notify"
	"github.com/Xstatic72/alphasis/internal/payment"
	"github.com/Xstatic72/alphasis/internal/registration"
	"github.com/Xstatic72/alphasis/internal/session"
	"github.com/Xstatic72/alphasis/internal/store"
)

// Lookup serves the shared reference lists; *directory.Repository satisfies it.
type Lookup interface {
	ListClasses(ctx context.Context) ([]model.Class, error)
	ListSubjects(ctx context.Context) ([]model.Subject, error)
	ListSubjectsByTeacher(ctx context.Context, teacherID string) ([]model.Subject, error)
	ListSubjectsByClassLevel(ctx context.Context, classLevel string) ([]model.Subject, error)
	ListTeachers(ctx context.Context) ([]model.Teacher, error)
	ListStudentsByClassLevel(ctx context.Context, classLevel string) ([]model.Student, error)
}

// Deps carries everything the API needs.
type Deps struct {
	Config    config.App
	Log       *zap.Logger
	Sessions  *session.Manager
	Directory *directory.Service
	Lookup    Lookup
	Att       *attendance.Service
	Grades    *grades.Service
	Regs      *registration.Service
	Payments  *payment.Service
	Notes     *notify.Processor
	DB        *store.DB
	Redis     *store.Redis
}

// API holds the handler dependencies.
type API struct {
	cfg      config.App
	log      *zap.Logger
	sessions *session.Manager
	dir      *directory.Service
	lookup   Lookup
	att      *attendance.Service
	grades   *grades.Service
	regs     *registration.Service
	payments *payment.Service
	notes    *notify.Processor
	db       *store.DB
	redis    *store.Redis
}

// New builds the API.
func New(d Deps) *API {
	return &API{
		cfg:      d.Config,
		log:      d.Log,
		sessions: d.Sessions,
		dir:      d.Directory,
		lookup:   d.Lookup,
		att:      d.Att,
		grades:   d.Grades,
		regs:     d.Regs,
		payments: d.Payments,
		notes:    d.Notes,
		db:       d.DB,
		redis:    d.Redis,
	}
}

// Router assembles the gin engine.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(a.log, "/healthz", "/metrics"))
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(a.cfg.RateLimitPerMin, a.cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", a.healthz)

	api := r.Group("/api")
	api.POST("/auth/login", a.login)

	cookie := a.cfg.SessionCookie
	anyRole := api.Group("", a.sessions.Require(cookie, model.RoleStudent, model.RoleTeacher, model.RoleParent))
	anyRole.POST("/auth/logout", a.logout)
	anyRole.GET("/attendance", a.listAttendance)
	anyRole.GET("/grades", a.listGrades)
	anyRole.GET("/classes", a.listClasses)
	anyRole.GET("/subjects", a.listSubjects)
	anyRole.GET("/teachers", a.listTeachers)
	anyRole.GET("/students", a.listStudents)
	anyRole.GET("/dashboard", a.dashboard)

	teacher := api.Group("", a.sessions.Require(cookie, model.RoleTeacher))
	teacher.POST("/attendance", a.markAttendance)
	teacher.PUT("/attendance", a.updateAttendance)
	teacher.DELETE("/attendance", a.deleteAttendance)
	teacher.GET("/attendance/session", a.markSessionRoster)
	teacher.POST("/attendance/session/finalize", a.finalizeMarkSession)
	teacher.POST("/grades", a.recordGrade)
	teacher.PUT("/grades", a.recordGrade)
	teacher.DELETE("/grades", a.deleteGrade)

	student := api.Group("", a.sessions.Require(cookie, model.RoleStudent))
	student.POST("/registrations", a.register)
	student.DELETE("/registrations/:registrationId", a.dropRegistration)

	studentOrParent := api.Group("", a.sessions.Require(cookie, model.RoleStudent, model.RoleParent))
	studentOrParent.GET("/registrations", a.listRegistrations)
	studentOrParent.GET("/payments", a.listPayments)
	studentOrParent.POST("/payments", a.recordPayment)

	parent := api.Group("", a.sessions.Require(cookie, model.RoleParent))
	parent.GET("/notifications", a.listNotifications)

	return r
}

func (a *API) healthz(c *gin.Context) {
	start := time.Now()
	dbHealthy := false
	if a.db != nil && a.db.Client != nil {
		dbHealthy = a.db.Client.PingContext(c.Request.Context()) == nil
		metrics.ObserveDBPing(time.Since(start))
	}
	redisHealthy := a.redis.Healthy(c.Request.Context())
	status := http.StatusOK
	if !dbHealthy || !redisHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
}
