package server

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"insurance-dms/internal/handlers"
	"insurance-dms/internal/metrics"
	"insurance-dms/internal/middleware"
)

type Options struct {
	SessionSecret string
	SecureCookies bool
	// Если TemplatesGlob пустой, HTML-страницы не подключаются (тесты API).
	TemplatesGlob string
	StaticDir     string
}

func NewRouter(h *handlers.Handler, m *metrics.Metrics, opts Options) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = h.MaxUploadBytes

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   8 * 60 * 60,
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	// HEALTHCHECK / METRICS
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// ====== JSON API ======
	api := r.Group("/api/v1")
	api.POST("/auth/token", h.IssueToken)

	authed := api.Group("/")
	authed.Use(middleware.RequireToken(h.Auth, h.Accounts))
	authed.GET("/claims", h.APIListClaims)
	authed.POST("/claims", h.APICreateClaim)
	authed.GET("/claims/:id", h.APIGetClaim)
	authed.PUT("/claims/:id", h.APIUpdateClaim)
	authed.POST("/claims/:id/lock", h.APILockClaim)
	authed.DELETE("/claims/:id", h.APIDeleteClaim)
	authed.POST("/users", h.APICreateUser)
	authed.PUT("/users/:id", h.APIUpdateUser)
	authed.PUT("/users/:id/password", h.APISetPassword)

	if opts.TemplatesGlob == "" {
		return r
	}

	// ====== АДМИНКА ======
	r.SetFuncMap(handlers.FuncMap())
	r.LoadHTMLGlob(opts.TemplatesGlob)
	if opts.StaticDir != "" {
		r.Static("/static", opts.StaticDir)
	}

	ui := r.Group("/")
	ui.Use(sessions.Sessions("dms_session", store))
	ui.Use(middleware.InjectUser(h.Accounts))

	ui.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/claims")
	})

	// AUTH
	ui.GET("/login", h.ShowLogin)
	ui.POST("/login", h.Login)
	ui.GET("/logout", h.Logout)

	staff := ui.Group("/")
	staff.Use(middleware.RequireAuth())

	// ЗАЯВКИ
	staff.GET("/claims", h.ListClaims)
	staff.GET("/claims/export", h.ExportClaims)
	staff.GET("/claims/new", h.ShowNewClaim)
	staff.POST("/claims/new", h.CreateClaim)
	staff.GET("/claims/:id", h.ShowClaim)
	staff.GET("/claims/:id/edit", h.ShowEditClaim)
	staff.POST("/claims/:id/edit", h.UpdateClaim)
	staff.POST("/claims/:id/lock", h.LockClaim)
	staff.POST("/claims/:id/delete", h.DeleteClaim)
	staff.GET("/claims/:id/documents/:kind", h.ClaimDocument)

	// ПОЛЬЗОВАТЕЛИ
	staff.GET("/users", h.ListUsers)
	staff.GET("/users/new", middleware.RequireSuperuser(), h.ShowNewUser)
	staff.POST("/users/new", middleware.RequireSuperuser(), h.CreateUser)
	staff.GET("/users/:id/edit", h.ShowEditUser)
	staff.POST("/users/:id/edit", h.UpdateUser)
	staff.POST("/users/:id/password", h.ChangePassword)
	staff.POST("/users/:id/delete", middleware.RequireSuperuser(), h.DeleteUser)

	// АУДИТ
	staff.GET("/audit", middleware.RequireSuperuser(), h.ListAuditLogs)

	return r
}
