package router

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"maeum-toegeun/backend/pkg/health"
	"maeum-toegeun/backend/pkg/resilience"

	"github.com/gin-gonic/gin"
)

// setupHealthRoutes registers the component checks and the health endpoints
func (r *Router) setupHealthRoutes() {
	c := r.Container
	r.Health.RegisterPing("store", c.Backend.Ping)
	r.Health.RegisterCheck("gemini", false, func(context.Context) (health.Status, string, error) {
		switch c.Breaker.State() {
		case resilience.StateOpen:
			return health.StatusDegraded, "circuit open", nil
		case resilience.StateHalfOpen:
			return health.StatusDegraded, "circuit probing", nil
		}
		return health.StatusUp, "", nil
	})
	r.Health.RegisterCheck("websocket", false, func(context.Context) (health.Status, string, error) {
		return health.StatusUp, fmt.Sprintf("%d active connections", r.Hub.ActiveConnections()), nil
	})
	r.Health.RunChecks(context.Background())

	r.Engine.GET("/health", r.Health.Handler())
	r.Engine.GET("/api/health", r.Health.Handler())
	r.Engine.GET("/api/health/runtime", func(ctx *gin.Context) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		ctx.JSON(200, gin.H{
			"version":    os.Getenv("APP_VERSION"),
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb":  mem.Alloc / 1024 / 1024,
				"sys_mb":    mem.Sys / 1024 / 1024,
				"gc_cycles": mem.NumGC,
			},
		})
	})
}
