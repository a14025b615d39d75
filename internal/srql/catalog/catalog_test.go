package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srql-engine/internal/common"
)

func TestResolveCanonicalNames(t *testing.T) {
	c := Default()

	for _, name := range []string{
		"devices", "agents", "pollers", "events", "logs", "services",
		"interfaces", "device_updates", "traces", "otel_metrics",
		"timeseries_metrics", "snmp_metrics", "rperf_metrics",
		"cpu_metrics", "memory_metrics", "disk_metrics", "process_metrics",
		"flows", "graph",
	} {
		entity, err := c.Resolve(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, entity.Name)
	}
}

func TestResolveAliases(t *testing.T) {
	c := Default()

	tests := map[string]string{
		"device":           "devices",
		"device_inventory": "devices",
		"activity":         "events",
		"service_status":   "services",
		"otel_traces":      "traces",
		"metrics":          "timeseries_metrics",
		"netflow":          "flows",
		"graph_cypher":     "graph",
		"topology":         "graph",
	}

	for alias, want := range tests {
		entity, err := c.Resolve(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, entity.Name, alias)
	}
}

func TestResolveUnknownEntity(t *testing.T) {
	c := Default()

	_, err := c.Resolve("widgets")
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrQueryEntityUnknown))
}

func TestDevicesColumnMapping(t *testing.T) {
	c := Default()
	devices, err := c.Resolve("devices")
	require.NoError(t, err)

	assert.Equal(t, "ocsf_devices", devices.Table)
	assert.Equal(t, "uid", devices.IDField)

	lastSeen, ok := devices.Column("last_seen")
	require.True(t, ok)
	assert.Equal(t, "last_seen_time", lastSeen.ColumnName())

	deviceType, ok := devices.Column("device_type")
	require.True(t, ok)
	assert.Equal(t, "type", deviceType.ColumnName())

	sources, ok := devices.Column("discovery_sources")
	require.True(t, ok)
	assert.Equal(t, CapContains, sources.Cap)
}

func TestSnmpMetricsForcesMetricType(t *testing.T) {
	c := Default()

	snmp, err := c.Resolve("snmp_metrics")
	require.NoError(t, err)
	require.NotNil(t, snmp.Downsample)
	assert.Equal(t, "timeseries_metrics", snmp.Table)
	assert.Equal(t, "snmp", snmp.Downsample.ForcedMetricType)

	rperf, err := c.Resolve("rperf_metrics")
	require.NoError(t, err)
	assert.Equal(t, "rperf", rperf.Downsample.ForcedMetricType)
}

func TestSeriesWhitelist(t *testing.T) {
	c := Default()
	ts, err := c.Resolve("timeseries_metrics")
	require.NoError(t, err)

	assert.True(t, ts.SeriesAllowed("metric_name"))
	assert.True(t, ts.SeriesAllowed("device_id"))
	assert.False(t, ts.SeriesAllowed("unit"))
}

func TestRegisterDuplicateRejected(t *testing.T) {
	c := Default()

	err := c.Register(devicesEntity())
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrAlreadyExists))
}

func TestGraphEntityHasNoTable(t *testing.T) {
	c := Default()
	graph, err := c.Resolve("graph")
	require.NoError(t, err)

	assert.True(t, graph.Graph)
	assert.Empty(t, graph.Table)
}
