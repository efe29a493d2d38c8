package app

import (
	"time"

	"edu_dashboard_client/internal/config"
	"edu_dashboard_client/internal/util"
	"edu_dashboard_client/pkg/monitoring"
	"edu_dashboard_client/pkg/security"

	"github.com/gin-gonic/gin"
)

// registerRoutes 诊断端口：指标、健康检查、只读状态快照。
// 仅本机排障用，不暴露写操作。
func (a *App) registerRoutes(router *gin.Engine, cfg *config.Config) {
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100
	}
	router.Use(security.RateLimiter(maxRequests, window))

	router.GET("/metrics", monitoring.PrometheusHandler())

	router.GET("/healthz", func(c *gin.Context) {
		util.Success(c, gin.H{"status": "ok"})
	})

	router.GET("/debug/state", a.handleDebugState)
}

// handleDebugState 各store快照的只读视图，凭证本身不外泄
func (a *App) handleDebugState(c *gin.Context) {
	session := a.Session.State()
	courses := a.Courses.State()
	assignments := a.Assignments.State()

	util.Success(c, gin.H{
		"session": gin.H{
			"identity":      session.Identity,
			"hasCredential": session.Credential != "",
			"pending":       session.Pending,
			"lastError":     session.LastError,
		},
		"courses": gin.H{
			"count":          len(courses.Courses),
			"loading":        courses.Loading,
			"errorMessage":   courses.ErrorMessage,
			"successMessage": courses.SuccessMessage,
		},
		"assignments": gin.H{
			"buckets":        len(assignments.ByCourse),
			"messages":       len(assignments.Messages),
			"loading":        assignments.Loading,
			"errorMessage":   assignments.ErrorMessage,
			"successMessage": assignments.SuccessMessage,
		},
	})
}
