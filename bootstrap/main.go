package bootstrap

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	pprof_gin "github.com/gin-contrib/pprof"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/infoshare/backend/config"
	"github.com/infoshare/backend/controllers"
	"github.com/infoshare/backend/logging"
	"github.com/infoshare/backend/middleware"
	"github.com/infoshare/backend/models"
	"github.com/infoshare/backend/services"
	"github.com/infoshare/backend/utils"
)

var Version = "dev"

func Bootstrap() *gin.Engine {
	logging.Init()
	cfg := config.Load()

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              os.Getenv("SENTRY_DSN"),
		EnableTracing:    true,
		TracesSampleRate: 0.1,
		Release:          "api@" + Version,
		DebugWriter:      utils.NewSentrySlogWriter(slog.Default().WithGroup("sentry")),
	}); err != nil {
		slog.Error("Sentry initialization failed", "error", err)
	}

	models.ConnectDatabase()

	services.DefaultMemberAccessLevel = models.AccessLevel(config.DefaultMemberAccessLevel())

	sync := services.NewGrantSyncService(models.DB, services.SlogNotifier{})
	signer := services.NewSignService(models.DB, sync)
	signer.MaxGroupNameLength = config.MaxGroupNameLength()
	ctrl := controllers.Controller{
		Sync:     sync,
		Signer:   signer,
		Reverter: services.NewRevertToDraftService(models.DB, sync),
	}

	r := gin.Default()

	// Enable pprof endpoints
	pprof_gin.Register(r)

	r.Use(sloggin.New(slog.Default().WithGroup("http")))
	r.Use(logging.Middleware())

	store := gormsessions.NewStore(models.DB.GormDB, true, []byte(os.Getenv("SESSION_SECRET")))
	r.Use(sessions.Sessions("infoshare-session", store))

	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"build_date":  cfg.BuildDate,
			"deployed_at": cfg.DeployedAt,
			"version":     Version,
		})
	})

	authorized := r.Group("/api")
	authorized.Use(middleware.GetApiMiddleware())

	authorized.GET("/agreements", ctrl.ListAgreements)
	authorized.POST("/agreements", ctrl.CreateAgreement)
	authorized.GET("/agreements/:agreementId", ctrl.GetAgreement)
	authorized.PUT("/agreements/:agreementId", ctrl.UpdateAgreement)
	authorized.DELETE("/agreements/:agreementId", ctrl.DeleteAgreement)
	authorized.POST("/agreements/:agreementId/sign", ctrl.SignAgreement)
	authorized.POST("/agreements/:agreementId/revert-to-draft", ctrl.RevertAgreementToDraft)

	authorized.GET("/agreements/:agreementId/access-grants", ctrl.ListAccessGrants)
	authorized.POST("/agreements/:agreementId/access-grants", ctrl.CreateAccessGrant)
	authorized.DELETE("/access-grants/:grantId", ctrl.DeleteAccessGrant)

	authorized.GET("/groups/:groupId/members", ctrl.ListGroupMembers)
	authorized.POST("/groups/:groupId/members", ctrl.AddGroupMember)
	authorized.DELETE("/groups/:groupId/members/:userId", ctrl.RemoveGroupMember)

	web := r.Group("/web")
	web.Use(middleware.GetWebMiddleware())
	web.GET("/messages", controllers.GetFlashMessages)

	admin := r.Group("/api")
	admin.Use(middleware.GetApiMiddleware(), middleware.RequireSystemAdmin())
	admin.POST("/tokens/issue-service-token", ctrl.IssueServiceToken)

	r.Use(middleware.CORSMiddleware())

	if config.InternalEndpointsEnabled() {
		r.POST("/_internal/api/create_user", middleware.InternalApiAuth(), ctrl.CreateUserInternal)
		r.POST("/_internal/api/deactivate_user", middleware.InternalApiAuth(), ctrl.DeactivateUserInternal)
		r.POST("/_internal/api/upsert_org", middleware.InternalApiAuth(), ctrl.UpsertOrgInternal)
	}

	return r
}
