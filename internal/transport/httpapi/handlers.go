package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ResultViewer/internal/domain"
	"ResultViewer/internal/i18n"
	"ResultViewer/internal/infrastructure/backend"
	"ResultViewer/internal/usecase"
	"ResultViewer/internal/view"
)

// Handler serves the result viewer endpoints.
type Handler struct {
	sessions      *usecase.Sessions
	defaultLocale string
	logger        *slog.Logger
}

// NewHandler binds handlers to the session registry.
func NewHandler(sessions *usecase.Sessions, defaultLocale string, logger *slog.Logger) *Handler {
	locale := i18n.Normalize(defaultLocale)
	if !i18n.IsSupported(locale) {
		locale = i18n.BaseLocale
	}
	return &Handler{sessions: sessions, defaultLocale: locale, logger: logger}
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type languageItem struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	ContentOnly bool   `json:"content_only"`
}

// Languages lists the picker entries, named in the caller's locale.
func (h *Handler) Languages(c *gin.Context) {
	locale := h.viewerLocale(c)
	supported := i18n.Supported()
	items := make([]languageItem, 0, len(supported))
	for _, lang := range supported {
		items = append(items, languageItem{
			Code:        lang.Code,
			Name:        lang.Name,
			DisplayName: i18n.DisplayName(lang.Code, locale),
			ContentOnly: h.sessions.IsContentOnly(lang.Code),
		})
	}
	c.JSON(http.StatusOK, gin.H{"ui_locale": locale, "languages": items})
}

// CreateResult stores a raw analysis payload.
func (h *Handler) CreateResult(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}

	var raw domain.RawAnalysisResult
	if err := json.Unmarshal(body, &raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body is not valid JSON"})
		return
	}

	id, err := h.sessions.CreateResult(c.Request.Context(), raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Analyze runs a fresh backend analysis and stores the verdict.
func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"text\": \"...\"}"})
		return
	}

	id, raw, err := h.sessions.AnalyzeText(c.Request.Context(), req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "result": raw})
}

// OpenView starts a view session for a stored result.
func (h *Handler) OpenView(c *gin.Context) {
	viewer := domain.Viewer{
		ID:       c.GetHeader("X-Viewer-ID"),
		UILocale: h.viewerLocale(c),
	}

	v, err := h.sessions.Open(c.Request.Context(), c.Param("resultID"), viewer)
	if err != nil {
		h.fail(c, err)
		return
	}

	render, err := h.sessions.Render(v.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"view_id": v.ID, "render": render})
}

// GetView returns the current render as JSON, or HTML with ?format=html.
func (h *Handler) GetView(c *gin.Context) {
	render, err := h.sessions.Render(c.Param("viewID"))
	if err != nil {
		h.fail(c, err)
		return
	}

	if strings.EqualFold(c.Query("format"), "html") {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusOK)
		if err := view.RenderHTML(c.Writer, render); err != nil && h.logger != nil {
			h.logger.Error("render html", "view", c.Param("viewID"), "error", err)
		}
		return
	}
	c.JSON(http.StatusOK, render)
}

type selectRequest struct {
	Language string `json:"language"`
}

// SelectLanguage switches the view's explanation language.
func (h *Handler) SelectLanguage(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Language) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"language\": \"...\"}"})
		return
	}

	render, err := h.sessions.SelectLanguage(c.Request.Context(), c.Param("viewID"), req.Language)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"content_only": h.sessions.IsContentOnly(req.Language),
		"render":       render,
	})
}

// CloseView discards a view.
func (h *Handler) CloseView(c *gin.Context) {
	if err := h.sessions.Close(c.Param("viewID")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// viewerLocale resolves the chrome locale from ?lang=, then Accept-Language.
func (h *Handler) viewerLocale(c *gin.Context) string {
	if lang := i18n.Normalize(c.Query("lang")); lang != "" && i18n.IsSupported(lang) {
		return lang
	}
	return i18n.MatchAcceptLanguage(c.GetHeader("Accept-Language"), h.defaultLocale)
}

func (h *Handler) fail(c *gin.Context, err error) {
	var statusErr *backend.StatusError
	switch {
	case errors.Is(err, domain.ErrMissingResult):
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis result not found"})
	case errors.Is(err, usecase.ErrViewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnsupportedLanguage), errors.Is(err, usecase.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &statusErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": statusErr.Message})
	default:
		if h.logger != nil {
			h.logger.Error("request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
