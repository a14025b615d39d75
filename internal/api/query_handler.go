package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"srql-engine/internal/metrics"
	"srql-engine/internal/srql/engine"
)

// QueryHandler serves the query endpoints.
type QueryHandler struct {
	engine  *engine.QueryEngine
	metrics *metrics.Metrics
	log     zerolog.Logger
	timeout time.Duration
}

// NewQueryHandler wires the engine into the REST surface.
func NewQueryHandler(eng *engine.QueryEngine, m *metrics.Metrics, log zerolog.Logger, timeout time.Duration) *QueryHandler {
	return &QueryHandler{engine: eng, metrics: m, log: log, timeout: timeout}
}

// Query executes a query and returns rows with pagination and viz metadata.
func (h *QueryHandler) Query(c *gin.Context) {
	var req engine.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	start := time.Now()
	resp, err := h.engine.Query(ctx, req)
	if err != nil {
		h.metrics.ObserveQuery("unknown", "error", 0, time.Since(start))
		writeError(c, err)
		return
	}

	h.metrics.ObserveQuery(resp.Entity, "ok", len(resp.Results), time.Since(start))
	c.JSON(http.StatusOK, resp)
}

// Translate renders a query to SQL without executing it.
func (h *QueryHandler) Translate(c *gin.Context) {
	var req engine.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.engine.Translate(req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Export executes the query in the q parameter and streams the result as an
// Arrow IPC payload. GET so exports can be linked from dashboards.
func (h *QueryHandler) Export(c *gin.Context) {
	req := engine.QueryRequest{
		Query:  c.Query("q"),
		Cursor: c.Query("cursor"),
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing q parameter"})
		return
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit: " + raw})
			return
		}
		req.Limit = limit
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	start := time.Now()
	resp, err := h.engine.Query(ctx, req)
	if err != nil {
		h.metrics.ObserveQuery("unknown", "error", 0, time.Since(start))
		writeError(c, err)
		return
	}
	h.metrics.ObserveQuery(resp.Entity, "ok", len(resp.Results), time.Since(start))

	payload, err := engine.EncodeArrow(resp)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+resp.Entity+`.arrow"`)
	c.Data(http.StatusOK, "application/vnd.apache.arrow.stream", payload)
}

// Entities lists the queryable entity names.
func (h *QueryHandler) Entities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entities": h.engine.Entities()})
}

func (h *QueryHandler) queryContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}
