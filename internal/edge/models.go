// Package edge implements onboarding package issuance and delivery: operators
// mint a package with a one-time download token, edge hosts redeem the token
// for a configuration archive, and every transition is recorded as an event.
package edge

import (
	"time"

	"github.com/google/uuid"
)

// PackageStatus is the lifecycle state of an onboarding package.
type PackageStatus string

const (
	StatusIssued    PackageStatus = "issued"
	StatusDelivered PackageStatus = "delivered"
	StatusActivated PackageStatus = "activated"
	StatusRevoked   PackageStatus = "revoked"
	StatusExpired   PackageStatus = "expired"
	StatusDeleted   PackageStatus = "deleted"
)

// AllStatuses lists the valid lifecycle states.
func AllStatuses() []PackageStatus {
	return []PackageStatus{
		StatusIssued, StatusDelivered, StatusActivated,
		StatusRevoked, StatusExpired, StatusDeleted,
	}
}

// ComponentType is the kind of edge component a package provisions.
type ComponentType string

const (
	ComponentPoller  ComponentType = "poller"
	ComponentAgent   ComponentType = "agent"
	ComponentChecker ComponentType = "checker"
)

// AllComponentTypes lists the provisionable component kinds.
func AllComponentTypes() []ComponentType {
	return []ComponentType{ComponentPoller, ComponentAgent, ComponentChecker}
}

// Package is one issued onboarding package. The download token itself is
// never stored, only its SHA-256 hash, and the hash is cleared on delivery
// so a token can be redeemed exactly once.
type Package struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	ComponentID   string        `json:"component_id,omitempty"`
	ComponentType ComponentType `json:"component_type"`
	ParentType    ComponentType `json:"parent_type,omitempty"`
	ParentID      string        `json:"parent_id,omitempty"`
	PollerID      string        `json:"poller_id,omitempty"`
	Site          string        `json:"site,omitempty"`

	Selectors []string      `json:"selectors"`
	Status    PackageStatus `json:"status"`

	DownloadTokenHash      string    `json:"-"`
	DownloadTokenExpiresAt time.Time `json:"download_token_expires_at"`
	JoinTokenExpiresAt     time.Time `json:"join_token_expires_at"`

	ArtifactKey string `json:"-"`
	APIBaseURL  string `json:"api_base_url,omitempty"`

	CreatedBy string            `json:"created_by"`
	Notes     string            `json:"notes,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`

	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
	ActivatedAt     *time.Time `json:"activated_at,omitempty"`
	ActivatedFromIP string     `json:"activated_from_ip,omitempty"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	DeletedBy       string     `json:"deleted_by,omitempty"`
	DeletedReason   string     `json:"deleted_reason,omitempty"`
}

// ListFilter narrows a package listing.
type ListFilter struct {
	Statuses    []PackageStatus
	Types       []ComponentType
	PollerID    string
	ComponentID string
	ParentID    string
	Limit       int
}

// Event is one audit record for a package.
type Event struct {
	ID        uuid.UUID `json:"id"`
	PackageID uuid.UUID `json:"package_id"`
	EventTime time.Time `json:"event_time"`
	EventType string    `json:"event_type"`
	Actor     string    `json:"actor"`
	SourceIP  string    `json:"source_ip,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// Event types recorded by the service.
const (
	EventIssued         = "issued"
	EventDelivered      = "delivered"
	EventActivated      = "activated"
	EventRevoked        = "revoked"
	EventDeleted        = "deleted"
	EventDownloadDenied = "download_denied"
)
