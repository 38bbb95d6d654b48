package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/config"
	"github.com/you/homeauth/internal/http/handlers"
	"github.com/you/homeauth/internal/http/middleware"
	"github.com/you/homeauth/internal/http/response"
	"go.uber.org/zap"
)

// RouterDeps groups everything the router mounts
type RouterDeps struct {
	Users    *handlers.UserAuthHandlers
	Workers  *handlers.WorkerAuthHandlers
	Admin    *handlers.AdminHandlers
	Policies *handlers.PolicyHandlers
	Auth     *middleware.AuthMW
	Casbin   *middleware.CasbinMW
	Limits   *middleware.RateLimitMW
	Config   *config.Config
	Logger   *zap.Logger
}

func BuildRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(d.Logger), gin.Recovery())

	r.GET("/health", func(c *gin.Context) { response.OK(c, "ok", nil) })

	cfg := d.Config
	limit := func(name string, w config.Window, message string) gin.HandlerFunc {
		return d.Limits.Limit(name, w, message)
	}

	auth := r.Group("/auth")
	auth.POST("/register", d.Users.Register)
	auth.POST("/login", limit("auth:login", cfg.LoginLimit, middleware.LoginLimitMessage), d.Users.Login)
	auth.POST("/request-otp", limit("auth:otp", cfg.OTPLimit, middleware.OTPLimitMessage), d.Users.RequestOTP)
	auth.POST("/verify-otp", limit("auth:otp", cfg.OTPLimit, middleware.OTPLimitMessage), d.Users.VerifyOTP)
	auth.POST("/refresh-token", d.Users.Refresh)
	auth.POST("/forgot-password", limit("auth:reset", cfg.PasswordResetLimit, middleware.PasswordResetLimitMessage), d.Users.ForgotPassword)
	auth.POST("/reset-password", limit("auth:reset", cfg.PasswordResetLimit, middleware.PasswordResetLimitMessage), d.Users.ResetPassword)

	userOnly := auth.Group("", d.Auth.RequireUser())
	userOnly.POST("/logout", d.Users.Logout)
	userOnly.POST("/logout-all", d.Users.LogoutAll)
	userOnly.POST("/change-password", d.Users.ChangePassword)
	userOnly.GET("/me", d.Users.Me)

	wa := r.Group("/worker-auth")
	wa.POST("/register", limit("worker:otp", cfg.OTPLimit, middleware.OTPLimitMessage), d.Workers.Register)
	wa.POST("/verify-otp", limit("worker:otp", cfg.OTPLimit, middleware.OTPLimitMessage), d.Workers.VerifyOTP)
	wa.POST("/request-otp", limit("worker:otp", cfg.OTPLimit, middleware.OTPLimitMessage), d.Workers.RequestOTP)
	wa.POST("/login", limit("worker:login", cfg.LoginLimit, middleware.LoginLimitMessage), d.Workers.Login)
	wa.POST("/refresh-token", d.Workers.Refresh)
	wa.POST("/forgot-password", limit("worker:reset", cfg.PasswordResetLimit, middleware.PasswordResetLimitMessage), d.Workers.ForgotPassword)
	wa.POST("/reset-password", limit("worker:reset", cfg.PasswordResetLimit, middleware.PasswordResetLimitMessage), d.Workers.ResetPassword)

	// pending_approval workers may manage their session and profile
	anyWorker := wa.Group("", d.Auth.RequireWorker(false))
	anyWorker.POST("/logout", d.Workers.Logout)
	anyWorker.POST("/logout-all", d.Workers.LogoutAll)
	anyWorker.POST("/change-password", d.Workers.ChangePassword)
	anyWorker.GET("/me", d.Workers.Me)
	anyWorker.PUT("/profile", d.Workers.UpdateProfile)

	wa.PUT("/availability", d.Auth.RequireWorker(true), d.Workers.SetAvailability)

	adm := r.Group("/admin", d.Auth.RequireUser(domain.RoleAdmin), d.Casbin.Enforce())
	adm.PUT("/workers/:id/status", d.Admin.SetWorkerStatus)
	adm.PUT("/workers/:id/verified", d.Admin.SetWorkerVerified)
	adm.GET("/policies", d.Policies.List)
	adm.POST("/policies", d.Policies.Add)
	adm.DELETE("/policies", d.Policies.Remove)

	r.GET("/workers/:id", d.Auth.AdminOrWorker(), d.Casbin.Enforce(), middleware.SelfOrAdmin("id", d.Logger), d.Admin.GetWorker)

	r.NoRoute(func(c *gin.Context) {
		response.JSON(c, http.StatusNotFound, "Route not found", nil)
	})

	return r
}
