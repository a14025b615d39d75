package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"srql-engine/internal/auth"
	"srql-engine/internal/common"
	"srql-engine/internal/edge"
	"srql-engine/internal/metrics"
)

// EdgeHandler serves the onboarding package endpoints.
type EdgeHandler struct {
	service *edge.Service
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewEdgeHandler wires the onboarding service into the REST surface.
func NewEdgeHandler(service *edge.Service, m *metrics.Metrics, log zerolog.Logger) *EdgeHandler {
	return &EdgeHandler{service: service, metrics: m, log: log}
}

// Create issues a new package. The download and onboarding tokens appear in
// this response only.
func (h *EdgeHandler) Create(c *gin.Context) {
	var req edge.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	req.CreatedBy = auth.ActorFrom(c)

	result, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	h.metrics.PackagesIssued.Inc()
	c.JSON(http.StatusCreated, result)
}

// List returns packages filtered by the query parameters: status and type
// accept comma-separated lists, poller_id/component_id/parent_id match
// exactly, limit caps the page.
func (h *EdgeHandler) List(c *gin.Context) {
	filter := edge.ListFilter{
		PollerID:    c.Query("poller_id"),
		ComponentID: c.Query("component_id"),
		ParentID:    c.Query("parent_id"),
	}
	for _, part := range strings.Split(c.Query("status"), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			filter.Statuses = append(filter.Statuses, edge.PackageStatus(trimmed))
		}
	}
	for _, part := range strings.Split(c.Query("type"), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			filter.Types = append(filter.Types, edge.ComponentType(trimmed))
		}
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit: " + raw})
			return
		}
		filter.Limit = limit
	}

	packages, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	if packages == nil {
		packages = []*edge.Package{}
	}
	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

// Get returns one package. The reserved id "defaults" returns the configured
// issuance defaults instead, since it cannot collide with a UUID.
func (h *EdgeHandler) Get(c *gin.Context) {
	if c.Param("id") == "defaults" {
		h.Defaults(c)
		return
	}

	id, ok := h.packageID(c)
	if !ok {
		return
	}

	pkg, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

type downloadBody struct {
	DownloadToken string `json:"download_token"`
}

// Download redeems a one-time download token for the package archive. The
// token comes from the JSON body, the query string, or the X-Download-Token
// header. With ?format=json the manifest is returned instead of the archive.
func (h *EdgeHandler) Download(c *gin.Context) {
	id, ok := h.packageID(c)
	if !ok {
		return
	}

	var body downloadBody
	// token may also arrive via query or header
	_ = c.ShouldBindJSON(&body)
	token := body.DownloadToken
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		token = c.GetHeader("X-Download-Token")
	}

	result, err := h.service.Deliver(c.Request.Context(), edge.DeliverRequest{
		PackageID:     id,
		DownloadToken: token,
		Actor:         auth.ActorFrom(c),
		SourceIP:      c.ClientIP(),
	})
	if err != nil {
		h.metrics.DeliveryDenied.WithLabelValues(denialReason(err)).Inc()
		writeError(c, err)
		return
	}
	defer result.Archive.Close()

	h.metrics.PackagesDelivered.Inc()

	if c.Query("format") == "json" {
		manifest, err := edge.ManifestJSON(result.Package)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json", manifest)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Package.Name+`.tar.gz"`)
	c.Header("Content-Type", "application/gzip")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, result.Archive); err != nil {
		h.log.Warn().Err(err).
			Str("package_id", result.Package.ID.String()).
			Msg("archive stream interrupted")
	}
}

// Activate marks a delivered package as running.
func (h *EdgeHandler) Activate(c *gin.Context) {
	id, ok := h.packageID(c)
	if !ok {
		return
	}

	pkg, err := h.service.Activate(c.Request.Context(), id, auth.ActorFrom(c), c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// Revoke invalidates a package.
func (h *EdgeHandler) Revoke(c *gin.Context) {
	id, ok := h.packageID(c)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	// body is optional
	_ = c.ShouldBindJSON(&body)

	pkg, err := h.service.Revoke(c.Request.Context(), id, auth.ActorFrom(c), c.ClientIP(), body.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	h.metrics.PackagesRevoked.Inc()
	c.JSON(http.StatusOK, pkg)
}

// Delete soft-deletes a package.
func (h *EdgeHandler) Delete(c *gin.Context) {
	id, ok := h.packageID(c)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	// body is optional
	_ = c.ShouldBindJSON(&body)

	if err := h.service.Delete(c.Request.Context(), id, auth.ActorFrom(c), c.ClientIP(), body.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Events returns a package's audit trail.
func (h *EdgeHandler) Events(c *gin.Context) {
	id, ok := h.packageID(c)
	if !ok {
		return
	}

	var limit int
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit: " + raw})
			return
		}
		limit = parsed
	}

	events, err := h.service.ListEvents(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if events == nil {
		events = []*edge.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Defaults exposes the configured selector defaults and the valid statuses
// and component types.
func (h *EdgeHandler) Defaults(c *gin.Context) {
	selectors := h.service.DefaultSelectors()
	if selectors == nil {
		selectors = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"selectors":       selectors,
		"statuses":        edge.AllStatuses(),
		"component_types": edge.AllComponentTypes(),
	})
}

func (h *EdgeHandler) packageID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid package id"})
		return uuid.Nil, false
	}
	return id, true
}

func denialReason(err error) string {
	switch common.CodeOf(err) {
	case common.ErrPackageNotFound:
		return "not_found"
	case common.ErrDownloadTokenInvalid:
		return "invalid_token"
	case common.ErrPackageExpired:
		return "expired"
	case common.ErrPackageRevoked:
		return "revoked"
	case common.ErrPackageDelivered:
		return "already_delivered"
	default:
		return "error"
	}
}
