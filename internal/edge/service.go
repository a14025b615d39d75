package edge

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"srql-engine/internal/common"
	"srql-engine/internal/config"
	"srql-engine/internal/storage/artifact"
)

const (
	defaultListLimit   = 100
	defaultEventsLimit = 50
)

// Service implements the onboarding package lifecycle.
type Service struct {
	store     Store
	artifacts artifact.Store
	cfg       config.OnboardingConfig
	log       zerolog.Logger
	now       func() time.Time
}

// NewService wires the store and artifact backend.
func NewService(store Store, artifacts artifact.Store, cfg config.OnboardingConfig, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		artifacts: artifacts,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// CreateRequest describes a package to issue.
type CreateRequest struct {
	Name          string            `json:"name" binding:"required"`
	ComponentID   string            `json:"component_id,omitempty"`
	ComponentType ComponentType     `json:"component_type,omitempty"`
	ParentType    ComponentType     `json:"parent_type,omitempty"`
	ParentID      string            `json:"parent_id,omitempty"`
	PollerID      string            `json:"poller_id,omitempty"`
	Site          string            `json:"site,omitempty"`
	Selectors     []string          `json:"selectors,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedBy     string            `json:"-"`
	TTL           string            `json:"ttl,omitempty"`
}

// CreateResult carries the issued package plus the secrets shown exactly once.
type CreateResult struct {
	Package         *Package `json:"package"`
	DownloadToken   string   `json:"download_token"`
	OnboardingToken string   `json:"onboarding_token"`
}

// DeliverRequest redeems a download token for the package archive.
type DeliverRequest struct {
	PackageID     uuid.UUID
	DownloadToken string
	Actor         string
	SourceIP      string
}

// DeliverResult carries the archive stream and the updated package.
type DeliverResult struct {
	Package *Package
	Archive io.ReadCloser
}

// Create issues a package: mints the one-time download token, stores its
// hash, builds and uploads the archive, and records the issued event.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, common.NewError(common.ErrInvalidInput, "package name is required")
	}

	componentType, parentType, err := resolveComponent(req)
	if err != nil {
		return nil, err
	}

	selectors := req.Selectors
	if len(selectors) == 0 {
		selectors = s.defaultSelectors()
	}

	downloadTTL, err := s.downloadTokenTTL(req.TTL)
	if err != nil {
		return nil, err
	}
	joinTTL, err := s.joinTokenTTL()
	if err != nil {
		return nil, err
	}

	downloadToken, err := NewDownloadToken(s.cfg.DownloadTokenBytes)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	pkg := &Package{
		ID:                     uuid.New(),
		Name:                   name,
		ComponentID:            strings.TrimSpace(req.ComponentID),
		ComponentType:          componentType,
		ParentType:             parentType,
		ParentID:               strings.TrimSpace(req.ParentID),
		PollerID:               strings.TrimSpace(req.PollerID),
		Site:                   strings.TrimSpace(req.Site),
		Selectors:              selectors,
		Status:                 StatusIssued,
		DownloadTokenHash:      HashDownloadToken(downloadToken),
		DownloadTokenExpiresAt: now.Add(downloadTTL),
		JoinTokenExpiresAt:     now.Add(joinTTL),
		APIBaseURL:             s.cfg.APIBaseURL,
		CreatedBy:              strings.TrimSpace(req.CreatedBy),
		Notes:                  strings.TrimSpace(req.Notes),
		Metadata:               req.Metadata,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	pkg.ArtifactKey = fmt.Sprintf("packages/%s.tar.gz", pkg.ID)

	onboardingToken, err := EncodeToken(TokenPayload{
		PackageID:     pkg.ID.String(),
		DownloadToken: downloadToken,
		APIBaseURL:    pkg.APIBaseURL,
	})
	if err != nil {
		return nil, err
	}

	archive, err := BuildArchive(pkg, onboardingToken)
	if err != nil {
		return nil, err
	}
	if err := s.artifacts.Put(ctx, pkg.ArtifactKey, bytes.NewReader(archive)); err != nil {
		return nil, err
	}

	if err := s.store.Upsert(ctx, pkg); err != nil {
		return nil, err
	}
	s.recordEvent(ctx, pkg.ID, EventIssued, pkg.CreatedBy, "", map[string]string{
		"expires_at": pkg.DownloadTokenExpiresAt.Format(time.RFC3339),
	})

	s.log.Info().
		Str("package_id", pkg.ID.String()).
		Str("name", pkg.Name).
		Str("component_type", string(pkg.ComponentType)).
		Msg("edge package issued")

	return &CreateResult{
		Package:         pkg,
		DownloadToken:   downloadToken,
		OnboardingToken: onboardingToken,
	}, nil
}

// resolveComponent validates the component kind and fills parent defaults:
// agents hang off pollers, checkers off agents, pollers have no parent.
func resolveComponent(req CreateRequest) (ComponentType, ComponentType, error) {
	componentType := req.ComponentType
	if componentType == "" {
		componentType = ComponentPoller
	}
	if !validComponentType(componentType) {
		return "", "", common.NewError(common.ErrInvalidInput,
			fmt.Sprintf("unknown component type: %s", componentType))
	}
	if req.ParentType != "" && !validComponentType(req.ParentType) {
		return "", "", common.NewError(common.ErrInvalidInput,
			fmt.Sprintf("unknown parent type: %s", req.ParentType))
	}

	parentType := req.ParentType
	switch componentType {
	case ComponentPoller:
		if strings.TrimSpace(req.ParentID) != "" || parentType != "" {
			return "", "", common.NewError(common.ErrInvalidInput,
				"poller packages cannot have a parent")
		}
	case ComponentAgent:
		if parentType == "" {
			parentType = ComponentPoller
		}
	case ComponentChecker:
		if parentType == "" {
			parentType = ComponentAgent
		}
	}
	return componentType, parentType, nil
}

// Deliver redeems a one-time download token. Guards run in a fixed order:
// existence, lifecycle state, token hash, then token expiry. On success the
// stored hash is cleared so the token cannot be reused; denied attempts are
// recorded as download_denied events.
func (s *Service) Deliver(ctx context.Context, req DeliverRequest) (*DeliverResult, error) {
	token := strings.TrimSpace(req.DownloadToken)
	if token == "" {
		return nil, common.NewError(common.ErrDownloadTokenInvalid, "download token is required")
	}

	pkg, err := s.store.Get(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	switch pkg.Status {
	case StatusIssued:
	case StatusRevoked, StatusDeleted:
		return nil, common.NewError(common.ErrPackageRevoked, "package has been revoked")
	case StatusDelivered, StatusActivated:
		return nil, common.NewError(common.ErrPackageDelivered, "package has already been delivered")
	case StatusExpired:
		return nil, common.NewError(common.ErrPackageExpired, "download token has expired")
	default:
		return nil, common.ErrInternalError(fmt.Sprintf("unexpected package status: %s", pkg.Status))
	}

	if pkg.DownloadTokenHash == "" {
		s.recordDenied(ctx, pkg.ID, req, "token_not_redeemable")
		return nil, common.NewError(common.ErrDownloadTokenInvalid, "download token is not redeemable")
	}
	tokenHash := HashDownloadToken(token)
	if subtle.ConstantTimeCompare([]byte(tokenHash), []byte(pkg.DownloadTokenHash)) != 1 {
		s.recordDenied(ctx, pkg.ID, req, "token_mismatch")
		return nil, common.NewError(common.ErrDownloadTokenInvalid, "download token does not match")
	}
	if now.After(pkg.DownloadTokenExpiresAt) {
		pkg.Status = StatusExpired
		pkg.UpdatedAt = now
		if err := s.store.Upsert(ctx, pkg); err != nil {
			s.log.Warn().Err(err).Str("package_id", pkg.ID.String()).Msg("failed to mark package expired")
		}
		s.recordDenied(ctx, pkg.ID, req, "token_expired")
		return nil, common.NewError(common.ErrPackageExpired, "download token has expired")
	}

	archive, err := s.artifacts.Get(ctx, pkg.ArtifactKey)
	if err != nil {
		return nil, err
	}

	deliveredAt := now
	pkg.Status = StatusDelivered
	pkg.DeliveredAt = &deliveredAt
	pkg.DownloadTokenHash = ""
	pkg.DownloadTokenExpiresAt = now
	pkg.UpdatedAt = now

	if err := s.store.Upsert(ctx, pkg); err != nil {
		archive.Close()
		return nil, err
	}
	s.recordEvent(ctx, pkg.ID, EventDelivered, req.Actor, req.SourceIP, map[string]string{
		"download_token_hash": tokenHash,
	})

	return &DeliverResult{Package: pkg, Archive: archive}, nil
}

// Activate marks a delivered package as running. Only delivered packages can
// activate.
func (s *Service) Activate(ctx context.Context, id uuid.UUID, actor, sourceIP string) (*Package, error) {
	pkg, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if pkg.Status != StatusDelivered {
		return nil, common.NewError(common.ErrConflict,
			fmt.Sprintf("package cannot activate from status %s", pkg.Status))
	}

	now := s.now().UTC()
	pkg.Status = StatusActivated
	pkg.ActivatedAt = &now
	pkg.ActivatedFromIP = strings.TrimSpace(sourceIP)
	pkg.UpdatedAt = now

	if err := s.store.Upsert(ctx, pkg); err != nil {
		return nil, err
	}
	s.recordEvent(ctx, pkg.ID, EventActivated, actor, sourceIP, nil)
	return pkg, nil
}

// Revoke invalidates a package and its artifact.
func (s *Service) Revoke(ctx context.Context, id uuid.UUID, actor, sourceIP, reason string) (*Package, error) {
	pkg, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if pkg.Status == StatusRevoked {
		return nil, common.NewError(common.ErrPackageRevoked, "package is already revoked")
	}
	if pkg.Status == StatusDeleted {
		return nil, common.NewError(common.ErrPackageNotFound, "package not found: "+id.String())
	}

	now := s.now().UTC()
	pkg.Status = StatusRevoked
	pkg.RevokedAt = &now
	pkg.DownloadTokenHash = ""
	pkg.DownloadTokenExpiresAt = now
	pkg.UpdatedAt = now

	if err := s.store.Upsert(ctx, pkg); err != nil {
		return nil, err
	}
	if err := s.artifacts.Delete(ctx, pkg.ArtifactKey); err != nil {
		s.log.Warn().Err(err).Str("package_id", pkg.ID.String()).Msg("failed to delete revoked artifact")
	}

	var details map[string]string
	if reason = strings.TrimSpace(reason); reason != "" {
		details = map[string]string{"reason": reason}
	}
	s.recordEvent(ctx, pkg.ID, EventRevoked, actor, sourceIP, details)
	return pkg, nil
}

// Delete soft-deletes a package. Activated packages must be revoked first.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor, sourceIP, reason string) error {
	pkg, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if pkg.Status == StatusActivated {
		return common.NewError(common.ErrConflict, "activated packages must be revoked before deletion")
	}
	if pkg.Status == StatusDeleted {
		return common.NewError(common.ErrPackageNotFound, "package not found: "+id.String())
	}

	now := s.now().UTC()
	pkg.Status = StatusDeleted
	pkg.DeletedAt = &now
	pkg.DeletedBy = strings.TrimSpace(actor)
	pkg.DeletedReason = strings.TrimSpace(reason)
	pkg.DownloadTokenHash = ""
	pkg.DownloadTokenExpiresAt = now
	pkg.UpdatedAt = now

	if err := s.store.Upsert(ctx, pkg); err != nil {
		return err
	}
	if err := s.artifacts.Delete(ctx, pkg.ArtifactKey); err != nil {
		s.log.Warn().Err(err).Str("package_id", pkg.ID.String()).Msg("failed to delete artifact")
	}

	var details map[string]string
	if pkg.DeletedReason != "" {
		details = map[string]string{"reason": pkg.DeletedReason}
	}
	s.recordEvent(ctx, pkg.ID, EventDeleted, actor, sourceIP, details)
	return nil
}

// Get returns one package. Soft-deleted packages read as not found.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Package, error) {
	pkg, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if pkg.Status == StatusDeleted {
		return nil, common.NewError(common.ErrPackageNotFound, "package not found: "+id.String())
	}
	return pkg, nil
}

// List returns packages matching the filter. With no status filter,
// soft-deleted packages are excluded.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Package, error) {
	for _, status := range filter.Statuses {
		if !validStatus(status) {
			return nil, common.NewError(common.ErrInvalidInput,
				fmt.Sprintf("invalid status filter: %s", status))
		}
	}
	for _, componentType := range filter.Types {
		if !validComponentType(componentType) {
			return nil, common.NewError(common.ErrInvalidInput,
				fmt.Sprintf("invalid type filter: %s", componentType))
		}
	}

	if len(filter.Statuses) == 0 {
		for _, status := range AllStatuses() {
			if status != StatusDeleted {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	return s.store.List(ctx, filter)
}

// ListEvents returns a package's audit trail.
func (s *Service) ListEvents(ctx context.Context, id uuid.UUID, limit int) ([]*Event, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultEventsLimit
	}
	return s.store.ListEvents(ctx, id, limit)
}

// DefaultSelectors exposes the configured selector defaults.
func (s *Service) DefaultSelectors() []string {
	return s.defaultSelectors()
}

func (s *Service) defaultSelectors() []string {
	if s.cfg.DefaultSelectors == "" {
		return nil
	}
	var selectors []string
	for _, raw := range strings.Split(s.cfg.DefaultSelectors, ",") {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			selectors = append(selectors, trimmed)
		}
	}
	return selectors
}

func (s *Service) downloadTokenTTL(override string) (time.Duration, error) {
	raw := strings.TrimSpace(override)
	if raw == "" {
		raw = s.cfg.DownloadTokenTTL
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		return 0, common.NewError(common.ErrInvalidInput, "invalid download token ttl: "+raw)
	}
	return ttl, nil
}

func (s *Service) joinTokenTTL() (time.Duration, error) {
	raw := strings.TrimSpace(s.cfg.JoinTokenTTL)
	if raw == "" {
		raw = "24h"
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		return 0, common.NewError(common.ErrInvalidInput, "invalid join token ttl: "+raw)
	}
	return ttl, nil
}

func (s *Service) recordDenied(ctx context.Context, packageID uuid.UUID, req DeliverRequest, reason string) {
	s.recordEvent(ctx, packageID, EventDownloadDenied, req.Actor, req.SourceIP, map[string]string{
		"reason": reason,
	})
}

// recordEvent appends an audit record. Event write failures are logged, not
// surfaced, so the main operation's outcome stands.
func (s *Service) recordEvent(ctx context.Context, packageID uuid.UUID, eventType, actor, sourceIP string, details map[string]string) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = "unknown"
	}

	var detailsJSON string
	if len(details) > 0 {
		if data, err := json.Marshal(details); err == nil {
			detailsJSON = string(data)
		}
	}

	event := &Event{
		ID:        uuid.New(),
		PackageID: packageID,
		EventTime: s.now().UTC(),
		EventType: eventType,
		Actor:     actor,
		SourceIP:  strings.TrimSpace(sourceIP),
		Details:   detailsJSON,
	}
	if err := s.store.InsertEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).
			Str("package_id", packageID.String()).
			Str("event_type", eventType).
			Msg("failed to record package event")
	}
}

func validStatus(status PackageStatus) bool {
	for _, valid := range AllStatuses() {
		if status == valid {
			return true
		}
	}
	return false
}

func validComponentType(componentType ComponentType) bool {
	for _, valid := range AllComponentTypes() {
		if componentType == valid {
			return true
		}
	}
	return false
}
