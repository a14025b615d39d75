package edge

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srql-engine/internal/common"
	"srql-engine/internal/config"
	"srql-engine/internal/storage/artifact"
)

type memStore struct {
	packages map[uuid.UUID]*Package
	events   []*Event
}

func newMemStore() *memStore {
	return &memStore{packages: make(map[uuid.UUID]*Package)}
}

func (m *memStore) Upsert(_ context.Context, pkg *Package) error {
	copied := *pkg
	m.packages[pkg.ID] = &copied
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*Package, error) {
	pkg, ok := m.packages[id]
	if !ok {
		return nil, common.NewError(common.ErrPackageNotFound, "package not found: "+id.String())
	}
	copied := *pkg
	return &copied, nil
}

func (m *memStore) List(_ context.Context, filter ListFilter) ([]*Package, error) {
	allowedStatus := make(map[PackageStatus]bool, len(filter.Statuses))
	for _, status := range filter.Statuses {
		allowedStatus[status] = true
	}
	allowedType := make(map[ComponentType]bool, len(filter.Types))
	for _, componentType := range filter.Types {
		allowedType[componentType] = true
	}

	var out []*Package
	for _, pkg := range m.packages {
		if len(allowedStatus) > 0 && !allowedStatus[pkg.Status] {
			continue
		}
		if len(allowedType) > 0 && !allowedType[pkg.ComponentType] {
			continue
		}
		if filter.PollerID != "" && pkg.PollerID != filter.PollerID {
			continue
		}
		if filter.ComponentID != "" && pkg.ComponentID != filter.ComponentID {
			continue
		}
		if filter.ParentID != "" && pkg.ParentID != filter.ParentID {
			continue
		}
		copied := *pkg
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memStore) InsertEvent(_ context.Context, event *Event) error {
	copied := *event
	m.events = append(m.events, &copied)
	return nil
}

func (m *memStore) ListEvents(_ context.Context, packageID uuid.UUID, limit int) ([]*Event, error) {
	var out []*Event
	for _, event := range m.events {
		if event.PackageID == packageID {
			copied := *event
			out = append(out, &copied)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type serviceFixture struct {
	service *Service
	store   *memStore
	clock   *time.Time
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()

	artifacts, err := artifact.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	store := newMemStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	service := NewService(store, artifacts, config.OnboardingConfig{
		Enabled:            true,
		JoinTokenTTL:       "24h",
		DownloadTokenTTL:   "1h",
		DefaultSelectors:   "env:edge, site:default",
		APIBaseURL:         "https://console.example.com",
		DownloadTokenBytes: 32,
	}, zerolog.Nop())
	service.now = func() time.Time { return now }

	return &serviceFixture{service: service, store: store, clock: &now}
}

func (f *serviceFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func (f *serviceFixture) events(t *testing.T, id uuid.UUID) []*Event {
	t.Helper()
	events, err := f.service.ListEvents(context.Background(), id, 0)
	require.NoError(t, err)
	return events
}

func TestCreateIssuesPackage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.Create(ctx, CreateRequest{Name: "edge-nyc-01", CreatedBy: "ops@example.com"})
	require.NoError(t, err)

	pkg := result.Package
	assert.Equal(t, StatusIssued, pkg.Status)
	assert.Equal(t, ComponentPoller, pkg.ComponentType)
	assert.Equal(t, []string{"env:edge", "site:default"}, pkg.Selectors)
	assert.NotEmpty(t, result.DownloadToken)
	assert.Equal(t, HashDownloadToken(result.DownloadToken), pkg.DownloadTokenHash)
	assert.Equal(t, f.clock.Add(24*time.Hour), pkg.JoinTokenExpiresAt)

	parsed, err := ParseToken(result.OnboardingToken, "", "")
	require.NoError(t, err)
	assert.Equal(t, pkg.ID.String(), parsed.PackageID)
	assert.Equal(t, result.DownloadToken, parsed.DownloadToken)

	events := f.events(t, pkg.ID)
	require.Len(t, events, 1)
	assert.Equal(t, EventIssued, events[0].EventType)
}

func TestCreateRejectsBlankName(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), CreateRequest{Name: "   "})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrInvalidInput))
}

func TestCreateComponentDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	agent, err := f.service.Create(ctx, CreateRequest{
		Name:          "agent-01",
		ComponentType: ComponentAgent,
		ParentID:      "poller-east",
	})
	require.NoError(t, err)
	assert.Equal(t, ComponentPoller, agent.Package.ParentType)

	checker, err := f.service.Create(ctx, CreateRequest{
		Name:          "checker-01",
		ComponentType: ComponentChecker,
		ParentID:      "agent-01",
	})
	require.NoError(t, err)
	assert.Equal(t, ComponentAgent, checker.Package.ParentType)
}

func TestCreateRejectsPollerWithParent(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), CreateRequest{
		Name:          "poller-01",
		ComponentType: ComponentPoller,
		ParentID:      "other-poller",
	})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrInvalidInput))
}

func TestCreateRejectsUnknownComponentType(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), CreateRequest{
		Name:          "mystery",
		ComponentType: "sensor",
	})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrInvalidInput))
}

func TestDeliverHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, CreateRequest{Name: "edge-nyc-01"})
	require.NoError(t, err)

	delivered, err := f.service.Deliver(ctx, DeliverRequest{
		PackageID:     created.Package.ID,
		DownloadToken: created.DownloadToken,
		Actor:         "edge-host",
		SourceIP:      "203.0.113.9",
	})
	require.NoError(t, err)
	defer delivered.Archive.Close()

	assert.Equal(t, StatusDelivered, delivered.Package.Status)
	assert.Empty(t, delivered.Package.DownloadTokenHash)
	require.NotNil(t, delivered.Package.DeliveredAt)

	names := readArchiveNames(t, delivered.Archive)
	assert.Contains(t, names, "manifest.json")
	assert.Contains(t, names, "onboarding.token")
	assert.Contains(t, names, "install.sh")

	events := f.events(t, created.Package.ID)
	require.Len(t, events, 2)
	assert.Equal(t, EventDelivered, events[1].EventType)
	assert.Equal(t, "203.0.113.9", events[1].SourceIP)
}

func TestDeliverIsOneShot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, CreateRequest{Name: "edge-nyc-01"})
	require.NoError(t, err)

	first, err := f.service.Deliver(ctx, DeliverRequest{
		PackageID:     created.Package.ID,
		DownloadToken: created.DownloadToken,
	})
	require.NoError(t, err)
	first.Archive.Close()

	_, err = f.service.Deliver(ctx, DeliverRequest{
		PackageID:     created.Package.ID,
		DownloadToken: created.DownloadToken,
	})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrPackageDelivered))
}

func TestDeliverWrongToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, CreateRequest{Name: "edge-nyc-01"})
	require.NoError(t, err)

	_, err = f.service.Deliver(ctx, DeliverRequest{
		PackageID:     created.Package.ID,
		DownloadToken: "wrong-token",
	})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrDownloadTokenInvalid))

	pkg, err := f.service.Get(ctx, created.Package.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, pkg.Status)

	events := f.events(t, created.Package.ID)
	require.Len(t, events, 2)
	assert.Equal(t, EventDownloadDenied, events[1].EventType)
}

func TestDeliverExpiredTokenFlipsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, CreateRequest{Name: "edge-nyc-01"})
	require.NoError(t, err)

	f.advance(2 * time.Hour)

	_, err = f.service.Deliver(ctx, DeliverRequest{
		PackageID:     created.Package.ID,
		DownloadToken: created.DownloadToken,
	})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrPackageExpired))

	pkg, err := f.service.Get(ctx, created.Package.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, pkg.Status)
}

func TestDeliverRevokedPackage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, CreateRequest{Name: "edge-nyc-01"})
	require.NoError(t, err)

	_, err = f.service.Revoke(ctx, created.Package.ID, "ops", "", "compromised")
	require.NoError(t, err)

	_, err = f.service.Deliver(ctx, DeliverRequest{
		PackageID:     created.Package.ID,
		DownloadToken: created.DownloadToken,
	})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrPackageRevoked))
}

func TestDeliverUnknownPackage(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Deliver(context.Background(), DeliverRequest{
		PackageID:     uuid.New(),
		DownloadToken: "anything",
	})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrPackageNotFound))
}

func TestRevokeIsIdempotentConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, CreateRequest{Name: "edge-nyc-01"})
	require.NoError(t, err)

	_, err = f.service.Revoke(ctx, created.Package.ID, "ops", "", "")
	require.NoError(t, err)

	_, err = f.service.Revoke(ctx, created.Package.ID, "ops", "", "")
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrPackageRevoked))
}

func TestActivateOnlyFromDelivered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, CreateRequest{Name: "edge-nyc-01"})
	require.NoError(t, err)

	_, err = f.service.Activate(ctx, created.Package.ID, "edge-host", "")
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrConflict))

	delivered, err := f.service.Deliver(ctx, DeliverRequest{
		PackageID:     created.Package.ID,
		DownloadToken: created.DownloadToken,
	})
	require.NoError(t, err)
	delivered.Archive.Close()

	pkg, err := f.service.Activate(ctx, created.Package.ID, "edge-host", "198.51.100.7")
	require.NoError(t, err)
	assert.Equal(t, StatusActivated, pkg.Status)
	assert.Equal(t, "198.51.100.7", pkg.ActivatedFromIP)
	require.NotNil(t, pkg.ActivatedAt)
}

func TestDeleteGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, CreateRequest{Name: "edge-nyc-01"})
	require.NoError(t, err)

	delivered, err := f.service.Deliver(ctx, DeliverRequest{
		PackageID:     created.Package.ID,
		DownloadToken: created.DownloadToken,
	})
	require.NoError(t, err)
	delivered.Archive.Close()

	_, err = f.service.Activate(ctx, created.Package.ID, "edge-host", "")
	require.NoError(t, err)

	err = f.service.Delete(ctx, created.Package.ID, "ops", "", "")
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrConflict))

	_, err = f.service.Revoke(ctx, created.Package.ID, "ops", "", "")
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, created.Package.ID, "ops", "", "decommissioned"))

	stored, err := f.store.Get(ctx, created.Package.ID)
	require.NoError(t, err)
	assert.Equal(t, "ops", stored.DeletedBy)
	assert.Equal(t, "decommissioned", stored.DeletedReason)
	require.NotNil(t, stored.DeletedAt)

	_, err = f.service.Get(ctx, created.Package.ID)
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrPackageNotFound))
}

func TestListFiltersAndDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.Create(ctx, CreateRequest{Name: "edge-a", PollerID: "poller-east"})
	require.NoError(t, err)
	_, err = f.service.Create(ctx, CreateRequest{Name: "edge-b", ComponentType: ComponentAgent})
	require.NoError(t, err)

	packages, err := f.service.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, packages, 2)

	packages, err = f.service.List(ctx, ListFilter{Types: []ComponentType{ComponentAgent}})
	require.NoError(t, err)
	assert.Len(t, packages, 1)

	packages, err = f.service.List(ctx, ListFilter{PollerID: "poller-east"})
	require.NoError(t, err)
	assert.Len(t, packages, 1)

	require.NoError(t, f.service.Delete(ctx, first.Package.ID, "ops", "", ""))

	packages, err = f.service.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, packages, 1)

	packages, err = f.service.List(ctx, ListFilter{Statuses: []PackageStatus{StatusDeleted}})
	require.NoError(t, err)
	assert.Len(t, packages, 1)

	_, err = f.service.List(ctx, ListFilter{Statuses: []PackageStatus{"bogus"}})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrInvalidInput))

	_, err = f.service.List(ctx, ListFilter{Types: []ComponentType{"sensor"}})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrInvalidInput))
}

func TestCreateWithTTLOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.Create(ctx, CreateRequest{Name: "edge-a", TTL: "30m"})
	require.NoError(t, err)
	assert.Equal(t, f.clock.Add(30*time.Minute), result.Package.DownloadTokenExpiresAt)

	_, err = f.service.Create(ctx, CreateRequest{Name: "edge-b", TTL: "nonsense"})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrInvalidInput))
}

func readArchiveNames(t *testing.T, archive io.Reader) []string {
	t.Helper()

	gz, err := gzip.NewReader(archive)
	require.NoError(t, err)
	defer gz.Close()

	var names []string
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, header.Name)
	}
	return names
}
