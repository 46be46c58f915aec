package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"snowid/internal/core/apperror"
	"snowid/internal/domain/idgen"
	"snowid/internal/infrastructure/http/v1/dto"
)

// Header-based dispatch, kept wire compatible with the edge worker clients.
const (
	HeaderAction = "Action"
	HeaderID     = "Id"

	ActionNext = "Next"
	ActionGet  = "Get"
)

// IDHandler serves ID allocation and decoding.
type IDHandler struct {
	*BaseHandler
	service *idgen.Service
}

// NewIDHandler creates a new ID handler.
func NewIDHandler(base *BaseHandler, service *idgen.Service) *IDHandler {
	return &IDHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers the REST routes on rg.
func (h *IDHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ids := rg.Group("/ids")
	{
		ids.POST("", h.Next)
		ids.GET("/:id", h.Inspect)
		ids.GET("/:id/timestamp", h.Timestamp)
	}
}

// Dispatch selects the operation from the Action header and answers in
// plain text.
//
//	Action: Next            -> new ID
//	Action: Get, Id: <id>   -> Unix ms timestamp of <id>
//
// ANY /
func (h *IDHandler) Dispatch(c *gin.Context) {
	ctx := c.Request.Context()

	switch action := c.GetHeader(HeaderAction); action {
	case ActionNext:
		id, err := h.service.Next(ctx)
		if err != nil {
			h.Error(c, err)
			return
		}
		c.String(http.StatusOK, "%s", id)

	case ActionGet:
		ms, err := h.service.Timestamp(ctx, c.GetHeader(HeaderID))
		if err != nil {
			h.Error(c, err)
			return
		}
		c.String(http.StatusOK, "%d", ms)

	default:
		h.Error(c, apperror.NewNoAction(action))
	}
}

// Next allocates one ID, or ?count=N IDs.
// POST /api/v1/ids
func (h *IDHandler) Next(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.ParseIntQuery(c, "count", 0, 1, idgen.MaxBatch)
	if err != nil {
		h.Error(c, err)
		return
	}

	if count == 0 {
		id, err := h.service.Next(ctx)
		if err != nil {
			h.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.IDResponse{ID: id})
		return
	}

	ids, err := h.service.NextN(ctx, count)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.IDListResponse{IDs: ids, Count: len(ids)})
}

// Timestamp decodes the timestamp of an ID.
// GET /api/v1/ids/:id/timestamp
func (h *IDHandler) Timestamp(c *gin.Context) {
	raw := c.Param("id")
	ms, err := h.service.Timestamp(c.Request.Context(), raw)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTimestampResponse(raw, ms))
}

// Inspect decomposes an ID into timestamp, node and sequence.
// GET /api/v1/ids/:id
func (h *IDHandler) Inspect(c *gin.Context) {
	raw := c.Param("id")
	parts, err := h.service.Inspect(c.Request.Context(), raw)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPartsResponse(raw, parts))
}
