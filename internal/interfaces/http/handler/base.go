package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/posterdash/backend/internal/infrastructure/logger"
	"github.com/posterdash/backend/internal/interfaces/http/dto"
	"github.com/posterdash/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDKey)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response, deriving the status from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeUnauthorized, message)
}

// HandleBindError reports a request that failed binding or validation
func (h *BaseHandler) HandleBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.Error(c, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+" failed "+fe.Tag())
		}
		h.Error(c, dto.ErrCodeValidation, "Request validation failed: "+strings.Join(fields, ", "))
		return
	}
	h.BadRequest(c, "Invalid request body")
}

// HandleError converts domain errors to HTTP responses. Anything that is not a
// domain error is logged and reported as an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.FromDomainCode(domainErr.Code)
		if code == dto.ErrCodeGateway {
			logger.FromContext(c.Request.Context()).Warn("POS gateway error", zap.Error(err))
		}
		h.Error(c, code, domainErr.Message)
		return
	}

	logger.FromContext(c.Request.Context()).Error("Unhandled error", zap.Error(err))
	_ = c.Error(err)
	h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

// orgID returns the caller's organization. On failure the response is written
// and ok is false.
func (h *BaseHandler) orgID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetJWTOrgID(c)
	if !ok {
		h.Unauthorized(c, "Organization not found in token")
	}
	return id, ok
}

// pathID parses the :id path parameter
func (h *BaseHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid id")
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}

// optionalUUIDQuery parses an optional uuid query parameter
func (h *BaseHandler) optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

// Calendar resolves the business day requests default to
type Calendar struct {
	Location    *time.Location
	CutoverHour int
	now         func() time.Time
}

// NewCalendar creates a Calendar
func NewCalendar(loc *time.Location, cutoverHour int) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{Location: loc, CutoverHour: cutoverHour, now: time.Now}
}

// Today returns the current business day
func (cal Calendar) Today() time.Time {
	now := time.Now
	if cal.now != nil {
		now = cal.now
	}
	return settlement.BusinessDateIn(now(), cal.Location, cal.CutoverHour)
}

// dateQuery reads ?date=YYYY-MM-DD, defaulting to the current business day
func (h *BaseHandler) dateQuery(c *gin.Context, cal Calendar) (time.Time, bool) {
	var q dto.DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return time.Time{}, false
	}
	if q.Date == "" {
		return cal.Today(), true
	}
	d, err := dto.ParseDate(q.Date)
	if err != nil {
		h.BadRequest(c, "Invalid date")
		return time.Time{}, false
	}
	return d, true
}
