package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/logger"
)

type handlers struct {
	svc Services
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

func (h *handlers) register(g *echo.Group) {
	g.POST("/ingest", h.ingest)
	g.POST("/ask", h.ask)
	g.GET("/metrics", h.metrics)
	g.GET("/health", h.health)
	g.GET("/documents", h.documents)
	g.GET("/documents/:id", h.document)
	if h.svc.Prometheus != nil {
		g.GET("/metrics/prometheus", echo.WrapHandler(h.svc.Prometheus))
	}
}

func (h *handlers) ingest(c echo.Context) error {
	res, err := h.svc.Ingest.Ingest(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *handlers) ask(c echo.Context) error {
	var req domain.AskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body"})
	}

	resp, err := h.svc.Ask.Ask(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) metrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Status.Metrics(c.Request().Context()))
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Status.Health(c.Request().Context()))
}

func (h *handlers) documents(c echo.Context) error {
	if h.svc.Document == nil {
		return c.JSON(http.StatusOK, []domain.DocumentRecord{})
	}
	docs, err := h.svc.Document.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *handlers) document(c echo.Context) error {
	if h.svc.Document == nil {
		return writeError(c, domain.ErrNotFound)
	}
	doc, err := h.svc.Document.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// writeError maps domain errors to status codes.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidQuery), errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrVectorStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		logger.Error("http: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	return c.JSON(status, errorBody{Error: err.Error()})
}
