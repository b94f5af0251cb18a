package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mohammad-safakhou/sourcer/internal/pipeline"
	"github.com/mohammad-safakhou/sourcer/models"
)

// Processor turns a script into a source report.
type Processor interface {
	Process(ctx context.Context, script string) (*models.Report, error)
}

type ScriptsHandler struct {
	Processor Processor
	Logger    zerolog.Logger
}

type analyzeRequest struct {
	ScriptText string `json:"script_text"`
}

// Register mounts the analysis route and its legacy aliases.
func (h *ScriptsHandler) Register(e *echo.Echo, m ...echo.MiddlewareFunc) {
	e.POST("/api/analyze_script", h.analyze, m...)
	e.POST("/analyze_script", h.analyze, m...)
	e.POST("/process_script", h.analyze, m...)
}

func (h *ScriptsHandler) analyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	report, err := h.Processor.Process(c.Request().Context(), req.ScriptText)
	if err != nil {
		return h.failure(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *ScriptsHandler) failure(c echo.Context, err error) error {
	var ce *pipeline.CapabilityError
	switch {
	case errors.Is(err, pipeline.ErrEmptyScript):
		return echo.NewHTTPError(http.StatusBadRequest, "No script_text provided")
	case errors.As(err, &ce):
		h.Logger.Error().Err(err).Str("stage", string(ce.Stage)).Str("raw", ce.Raw).Msg("capability failed")
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"error": ce.Error(),
			"stage": string(ce.Stage),
		})
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "analysis timed out").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
}
