package api

import (
	"github.com/gin-gonic/gin"

	"github.com/contextcraft/contextcraft/internal/assistant"
	"github.com/contextcraft/contextcraft/pkg/resilience"
)

// AssistantHandler serves the query endpoint
type AssistantHandler struct {
	service *assistant.Service
}

// NewAssistantHandler creates an assistant handler
func NewAssistantHandler(service *assistant.Service) *AssistantHandler {
	return &AssistantHandler{service: service}
}

// Respond handles POST /api/v1/respond
func (h *AssistantHandler) Respond(c *gin.Context) {
	var req assistant.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.Ask(c.Request.Context(), req)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	SuccessResponse(c, result)
}

// ProvidersHandler serves provider health and admin endpoints
type ProvidersHandler struct {
	manager *resilience.Manager
}

// NewProvidersHandler creates a providers handler
func NewProvidersHandler(manager *resilience.Manager) *ProvidersHandler {
	return &ProvidersHandler{manager: manager}
}

// Health handles GET /api/v1/providers/health
func (h *ProvidersHandler) Health(c *gin.Context) {
	SuccessResponse(c, h.manager.GetHealthReport())
}

// Reset handles POST /api/v1/providers/:id/reset
func (h *ProvidersHandler) Reset(c *gin.Context) {
	provider := c.Param("id")

	report := h.manager.GetHealthReport()
	if _, ok := report.Providers[provider]; !ok {
		NotFoundResponse(c, "unknown provider: "+provider)
		return
	}

	h.manager.ResetProviderHealth(provider)
	SuccessResponse(c, gin.H{
		"provider": provider,
		"reset":    true,
	})
}
