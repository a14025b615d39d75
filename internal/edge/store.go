package edge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"srql-engine/internal/common"
)

// Store persists packages and their audit events.
type Store interface {
	Upsert(ctx context.Context, pkg *Package) error
	Get(ctx context.Context, id uuid.UUID) (*Package, error)
	List(ctx context.Context, filter ListFilter) ([]*Package, error)
	InsertEvent(ctx context.Context, event *Event) error
	ListEvents(ctx context.Context, packageID uuid.UUID, limit int) ([]*Event, error)
}

// PGStore is the PostgreSQL-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps an established pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const upsertPackageSQL = `
INSERT INTO edge_packages (
	id, name, component_id, component_type, parent_type, parent_id,
	poller_id, site, selectors, status,
	download_token_hash, download_token_expires_at, join_token_expires_at,
	artifact_key, api_base_url, created_by, notes, metadata,
	created_at, updated_at, delivered_at, activated_at, activated_from_ip,
	revoked_at, deleted_at, deleted_by, deleted_reason
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
	$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	component_id = EXCLUDED.component_id,
	component_type = EXCLUDED.component_type,
	parent_type = EXCLUDED.parent_type,
	parent_id = EXCLUDED.parent_id,
	poller_id = EXCLUDED.poller_id,
	site = EXCLUDED.site,
	selectors = EXCLUDED.selectors,
	status = EXCLUDED.status,
	download_token_hash = EXCLUDED.download_token_hash,
	download_token_expires_at = EXCLUDED.download_token_expires_at,
	join_token_expires_at = EXCLUDED.join_token_expires_at,
	artifact_key = EXCLUDED.artifact_key,
	api_base_url = EXCLUDED.api_base_url,
	notes = EXCLUDED.notes,
	metadata = EXCLUDED.metadata,
	updated_at = EXCLUDED.updated_at,
	delivered_at = EXCLUDED.delivered_at,
	activated_at = EXCLUDED.activated_at,
	activated_from_ip = EXCLUDED.activated_from_ip,
	revoked_at = EXCLUDED.revoked_at,
	deleted_at = EXCLUDED.deleted_at,
	deleted_by = EXCLUDED.deleted_by,
	deleted_reason = EXCLUDED.deleted_reason`

const selectPackageColumns = `
	id, name, component_id, component_type, parent_type, parent_id,
	poller_id, site, selectors, status,
	download_token_hash, download_token_expires_at, join_token_expires_at,
	artifact_key, api_base_url, created_by, notes, metadata,
	created_at, updated_at, delivered_at, activated_at, activated_from_ip,
	revoked_at, deleted_at, deleted_by, deleted_reason`

// Upsert writes the package, replacing mutable fields on conflict.
func (s *PGStore) Upsert(ctx context.Context, pkg *Package) error {
	_, err := s.pool.Exec(ctx, upsertPackageSQL,
		pkg.ID, pkg.Name, pkg.ComponentID, string(pkg.ComponentType),
		string(pkg.ParentType), pkg.ParentID, pkg.PollerID, pkg.Site,
		pkg.Selectors, string(pkg.Status),
		pkg.DownloadTokenHash, pkg.DownloadTokenExpiresAt, pkg.JoinTokenExpiresAt,
		pkg.ArtifactKey, pkg.APIBaseURL, pkg.CreatedBy, pkg.Notes, pkg.Metadata,
		pkg.CreatedAt, pkg.UpdatedAt, pkg.DeliveredAt, pkg.ActivatedAt, pkg.ActivatedFromIP,
		pkg.RevokedAt, pkg.DeletedAt, pkg.DeletedBy, pkg.DeletedReason,
	)
	if err != nil {
		return common.NewErrorWithCause(common.ErrUnavailable, "failed to persist package", err)
	}
	return nil
}

// Get fetches one package by id.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Package, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+selectPackageColumns+` FROM edge_packages WHERE id = $1`, id)

	pkg, err := scanPackage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewError(common.ErrPackageNotFound, "package not found: "+id.String())
		}
		return nil, common.NewErrorWithCause(common.ErrUnavailable, "failed to load package", err)
	}
	return pkg, nil
}

// List fetches packages matching the filter, newest first.
func (s *PGStore) List(ctx context.Context, filter ListFilter) ([]*Package, error) {
	var (
		where []string
		args  []interface{}
	)
	bind := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Statuses) > 0 {
		values := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			values = append(values, string(status))
		}
		where = append(where, "status = ANY("+bind(values)+")")
	}
	if len(filter.Types) > 0 {
		values := make([]string, 0, len(filter.Types))
		for _, componentType := range filter.Types {
			values = append(values, string(componentType))
		}
		where = append(where, "component_type = ANY("+bind(values)+")")
	}
	if filter.PollerID != "" {
		where = append(where, "poller_id = "+bind(filter.PollerID))
	}
	if filter.ComponentID != "" {
		where = append(where, "component_id = "+bind(filter.ComponentID))
	}
	if filter.ParentID != "" {
		where = append(where, "parent_id = "+bind(filter.ParentID))
	}

	sql := `SELECT` + selectPackageColumns + ` FROM edge_packages`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		sql += ` LIMIT ` + bind(filter.Limit)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, common.NewErrorWithCause(common.ErrUnavailable, "failed to list packages", err)
	}
	defer rows.Close()

	var packages []*Package
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, common.NewErrorWithCause(common.ErrUnavailable, "failed to scan package", err)
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewErrorWithCause(common.ErrUnavailable, "failed to list packages", err)
	}
	return packages, nil
}

// InsertEvent appends one audit event.
func (s *PGStore) InsertEvent(ctx context.Context, event *Event) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO edge_package_events (id, package_id, event_time, event_type, actor, source_ip, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.PackageID, event.EventTime, event.EventType, event.Actor, event.SourceIP, event.Details,
	)
	if err != nil {
		return common.NewErrorWithCause(common.ErrUnavailable, "failed to record event", err)
	}
	return nil
}

// ListEvents returns a package's audit trail, oldest first.
func (s *PGStore) ListEvents(ctx context.Context, packageID uuid.UUID, limit int) ([]*Event, error) {
	sql := `SELECT id, package_id, event_time, event_type, actor, source_ip, details
		 FROM edge_package_events WHERE package_id = $1 ORDER BY event_time ASC`
	args := []interface{}{packageID}
	if limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, common.NewErrorWithCause(common.ErrUnavailable, "failed to list events", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.PackageID, &event.EventTime,
			&event.EventType, &event.Actor, &event.SourceIP, &event.Details); err != nil {
			return nil, common.NewErrorWithCause(common.ErrUnavailable, "failed to scan event", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewErrorWithCause(common.ErrUnavailable, "failed to list events", err)
	}
	return events, nil
}

func scanPackage(row pgx.Row) (*Package, error) {
	var pkg Package
	var status, componentType, parentType string
	err := row.Scan(
		&pkg.ID, &pkg.Name, &pkg.ComponentID, &componentType, &parentType, &pkg.ParentID,
		&pkg.PollerID, &pkg.Site, &pkg.Selectors, &status,
		&pkg.DownloadTokenHash, &pkg.DownloadTokenExpiresAt, &pkg.JoinTokenExpiresAt,
		&pkg.ArtifactKey, &pkg.APIBaseURL, &pkg.CreatedBy, &pkg.Notes, &pkg.Metadata,
		&pkg.CreatedAt, &pkg.UpdatedAt, &pkg.DeliveredAt, &pkg.ActivatedAt, &pkg.ActivatedFromIP,
		&pkg.RevokedAt, &pkg.DeletedAt, &pkg.DeletedBy, &pkg.DeletedReason,
	)
	if err != nil {
		return nil, err
	}
	pkg.Status = PackageStatus(status)
	pkg.ComponentType = ComponentType(componentType)
	pkg.ParentType = ComponentType(parentType)
	return &pkg, nil
}
