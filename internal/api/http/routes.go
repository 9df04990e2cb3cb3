package http

import (
	"github.com/gin-gonic/gin"
)

// Register mounts every route. Routes that touch plan or chat state run
// behind the session middleware.
func (h *Handlers) Register(router gin.IRouter, sessionMiddleware gin.HandlerFunc) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/health/generator", h.GeneratorHealth)
	router.GET("/catalog", h.Catalog)

	router.POST("/generate", h.Generate)
	router.POST("/vision", h.Vision)

	stateful := router.Group("", sessionMiddleware)
	stateful.DELETE("/session", h.EndSession)

	// Plan
	stateful.GET("/plan", h.GetPlan)
	stateful.PUT("/plan/organisation", h.UpdateOrganisation)
	stateful.PUT("/plan/checklists/:category", h.ReplaceChecklist)
	stateful.PUT("/plan/checklists/:category/:item", h.SetChecklistItem)
	stateful.GET("/plan/steps", h.ListSteps)
	stateful.PUT("/plan/steps/:step", h.SetStep)
	stateful.GET("/plan/activities", h.ListActivities)
	stateful.POST("/plan/activities", h.AddActivity)
	stateful.PUT("/plan/activities/:index/status", h.SetActivityStatus)
	stateful.POST("/plan/save", h.SavePlan)
	stateful.GET("/plan/export", h.ExportPlan)

	// Generation from plan state
	stateful.POST("/plan/analysis", h.AnalyzePlan)
	stateful.POST("/plan/steps/:step/recommendations", h.StepRecommendations)
	stateful.POST("/plan/activities/analysis", h.AnalyzeActionPlan)

	// Chat
	stateful.GET("/chat", h.GetChat)
	stateful.POST("/chat", h.SendChat)
	stateful.DELETE("/chat", h.ResetChat)
}
