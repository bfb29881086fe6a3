// Package http wires the Gin router for C8, the Submit/Poll Façade,
// grounded on the teacher's internal/http/router.go group-by-concern
// layout (health ungrouped, everything else under a versioned group with
// ambient middleware attached before any handler group).
package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/takahashiJe/navpack-orchestrator/internal/http/handlers"
	httpMW "github.com/takahashiJe/navpack-orchestrator/internal/http/middleware"
	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
)

type RouterConfig struct {
	Log           *logger.Logger
	HealthHandler *httpH.HealthHandler
	PlanHandler   *httpH.PlanHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("navpack-orchestrator"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	if cfg.PlanHandler != nil {
		nav := r.Group("/nav")
		{
			nav.POST("/plan", cfg.PlanHandler.SubmitPlan)
			nav.GET("/plan/tasks/:task_id", cfg.PlanHandler.GetPlanTask)
		}
	}

	return r
}
