// Package api exposes the tracker over HTTP/JSON.
package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"wellness-tracker/internal/service"
)

// Handler serves the event, category and level endpoints.
type Handler struct {
	events *service.EventService
}

func NewHandler(events *service.EventService) *Handler {
	return &Handler{events: events}
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.Health)
	router.GET("/events", h.ListEvents)
	router.POST("/events", h.CreateEvent)
	router.PUT("/events/:id", h.EditEvent)
	router.DELETE("/events/:id", h.DeleteEvent)
	router.GET("/categories", h.ListCategories)
	router.GET("/level", h.Level)

	return router
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListEvents handles GET /events.
func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.events.ListEvents(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventListResponse(events))
}

// CreateEvent handles POST /events. Points default to 1 when omitted.
func (h *Handler) CreateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error(), Code: codeInvalidBody})
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), req.toInput(1))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toEventResponse(*event))
}

// EditEvent handles PUT /events/:id.
func (h *Handler) EditEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error(), Code: codeInvalidBody})
		return
	}

	event, err := h.events.EditEvent(c.Request.Context(), c.Param("id"), req.toInput(0))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Event not found", Code: codeNotFound})
		return
	}
	c.JSON(http.StatusOK, toEventResponse(*event))
}

// DeleteEvent handles DELETE /events/:id. Unknown ids answer with removed=false.
func (h *Handler) DeleteEvent(c *gin.Context) {
	result, err := h.events.DeleteEventByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, DeleteResponse{Removed: result.Removed, AffectedCategory: result.AffectedCategory})
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.events.ListCategories(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryListResponse(categories))
}

// Level handles GET /level.
func (h *Handler) Level(c *gin.Context) {
	summary, err := h.events.Summary(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) handleServiceError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationErr.Error(), Code: codeValidation, Field: validationErr.Field})
	case errors.Is(err, service.ErrGoalAlreadyReached):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Goal already reached", Code: codeGoalReached})
	default:
		h.internalError(c, err)
	}
}

func (h *Handler) internalError(c *gin.Context, err error) {
	log.Printf("http %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Code: codeInternal})
}
