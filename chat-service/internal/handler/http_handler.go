package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/service"
	"github.com/weiawesome/wes-support-chat/pkg/jwt"
	"github.com/weiawesome/wes-support-chat/pkg/log"
	"github.com/weiawesome/wes-support-chat/pkg/middleware"
	"github.com/weiawesome/wes-support-chat/pkg/response"
)

// Handler serves monitoring and operator endpoints.
type Handler struct {
	support        service.SupportService
	cases          service.CaseService
	authMiddleware *middleware.AuthMiddleware
}

func NewHandler(support service.SupportService, cases service.CaseService, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		support:        support,
		cases:          cases,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes, including the websocket endpoint.
func (h *Handler) RegisterRoutes(r *gin.Engine, ws *WSHandler) {
	r.GET("/health", h.Health)
	if ws != nil {
		r.GET("/ws", gin.WrapF(ws.HandleWebSocket))
	}

	api := r.Group("/api/v1")
	{
		api.GET("/stats", h.Stats)
		api.GET("/rooms/:id", h.GetRoom)

		escalations := api.Group("/escalations", h.authMiddleware.RequireRole(jwt.RoleOperator))
		{
			escalations.GET("", h.ListEscalations)
			escalations.POST("/:id/resolve", h.ResolveEscalation)
		}
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Stats(c *gin.Context) {
	response.Success(c, h.support.Stats())
}

// GetRoom describes a room; unknown ids get the default descriptor.
func (h *Handler) GetRoom(c *gin.Context) {
	response.Success(c, h.support.DescribeRoom(c.Request.Context(), c.Param("id")))
}

func (h *Handler) ListEscalations(c *gin.Context) {
	ctx := c.Request.Context()

	cases, err := h.cases.ListCases(ctx, domain.CaseStatus(c.Query("status")))
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			response.BadRequest(c, "status must be open or resolved")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to list escalation cases")
		response.InternalError(c, "failed to list escalation cases")
		return
	}
	if cases == nil {
		cases = []domain.EscalationCase{}
	}

	response.Success(c, gin.H{"cases": cases, "total": len(cases)})
}

func (h *Handler) ResolveEscalation(c *gin.Context) {
	ctx := c.Request.Context()
	caseID := c.Param("id")

	resolved, err := h.cases.ResolveCase(ctx, caseID, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrCaseNotFound) {
			response.NotFound(c, "escalation case not found")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str("case_id", caseID).Msg("failed to resolve escalation case")
		response.InternalError(c, "failed to resolve escalation case")
		return
	}

	response.Success(c, resolved)
}
