package catalog

// Built-in entity definitions over the CNPG/TimescaleDB schema.

func builtinEntities() []*Entity {
	return []*Entity{
		devicesEntity(),
		agentsEntity(),
		pollersEntity(),
		eventsEntity(),
		logsEntity(),
		servicesEntity(),
		interfacesEntity(),
		deviceUpdatesEntity(),
		tracesEntity(),
		otelMetricsEntity(),
		timeseriesMetricsEntity("timeseries_metrics", []string{"metrics"}, ""),
		timeseriesMetricsEntity("snmp_metrics", nil, "snmp"),
		timeseriesMetricsEntity("rperf_metrics", nil, "rperf"),
		cpuMetricsEntity(),
		memoryMetricsEntity(),
		diskMetricsEntity(),
		processMetricsEntity(),
		flowsEntity(),
		graphEntity(),
	}
}

func devicesEntity() *Entity {
	return &Entity{
		Name:       "devices",
		Aliases:    []string{"device", "device_inventory"},
		Table:      "ocsf_devices",
		TimeColumn: "last_seen_time",
		IDField:    "uid",
		Columns: []Column{
			{Name: "uid", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "name", Type: TypeString, Semantic: SemanticName, Cap: CapNoList},
			{Name: "hostname", Type: TypeString, Semantic: SemanticName, Cap: CapNoList},
			{Name: "ip", Type: TypeString, Semantic: SemanticAddress, Cap: CapNoList},
			{Name: "mac", Type: TypeString, Semantic: SemanticAddress, Cap: CapNoList},
			{Name: "device_type", SQLName: "type", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "vendor_name", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "model", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "poller_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "agent_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "discovery_sources", Type: TypeArray, Semantic: SemanticDetail, Cap: CapContains},
			{Name: "is_available", Type: TypeBoolean, Semantic: SemanticStatus, Cap: CapBool},
			{Name: "first_seen", SQLName: "first_seen_time", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "last_seen", SQLName: "last_seen_time", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "metadata", Type: TypeJSON, Semantic: SemanticDetail, Cap: CapNone},
		},
		DefaultOrder: []Sort{
			{Field: "last_seen", Descending: true},
			{Field: "uid", Descending: true},
		},
	}
}

func agentsEntity() *Entity {
	return &Entity{
		Name:       "agents",
		Aliases:    []string{"agent"},
		Table:      "ocsf_agents",
		TimeColumn: "last_seen_time",
		Columns: []Column{
			{Name: "uid", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "name", Type: TypeString, Semantic: SemanticName, Cap: CapNoList},
			{Name: "agent_type", SQLName: "type", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "version", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "vendor_name", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "poller_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "ip", Type: TypeString, Semantic: SemanticAddress, Cap: CapNoList},
			{Name: "capabilities", Type: TypeArray, Semantic: SemanticDetail, Cap: CapContains},
			{Name: "first_seen", SQLName: "first_seen_time", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "last_seen", SQLName: "last_seen_time", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "metadata", Type: TypeJSON, Semantic: SemanticDetail, Cap: CapNone},
		},
		DefaultOrder: []Sort{
			{Field: "last_seen", Descending: true},
			{Field: "uid", Descending: true},
		},
	}
}

func pollersEntity() *Entity {
	return &Entity{
		Name:       "pollers",
		Aliases:    []string{"poller"},
		Table:      "pollers",
		TimeColumn: "last_seen",
		Columns: []Column{
			{Name: "poller_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "component_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "registration_source", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "status", Type: TypeString, Semantic: SemanticStatus, Cap: CapEquality},
			{Name: "spiffe_identity", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "is_healthy", Type: TypeBoolean, Semantic: SemanticStatus, Cap: CapBool},
			{Name: "agent_count", Type: TypeNumber, Semantic: SemanticMetric, Cap: CapNumber},
			{Name: "checker_count", Type: TypeNumber, Semantic: SemanticMetric, Cap: CapNumber},
			{Name: "first_seen", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "last_seen", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "metadata", Type: TypeJSON, Semantic: SemanticDetail, Cap: CapNone},
		},
		DefaultOrder: []Sort{
			{Field: "last_seen", Descending: true},
			{Field: "poller_id", Descending: true},
		},
	}
}

func eventsEntity() *Entity {
	return &Entity{
		Name:       "events",
		Aliases:    []string{"activity"},
		Table:      "events",
		TimeColumn: "event_timestamp",
		IDField:    "device_id",
		Columns: []Column{
			{Name: "event_timestamp", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "device_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "source", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "event_type", SQLName: "type", Type: TypeString, Semantic: SemanticDetail, Cap: CapFull},
			{Name: "subject", Type: TypeString, Semantic: SemanticDetail, Cap: CapNoList},
			{Name: "remote_addr", Type: TypeString, Semantic: SemanticAddress, Cap: CapNoList},
			{Name: "host", Type: TypeString, Semantic: SemanticName, Cap: CapNoList},
			{Name: "level", Type: TypeNumber, Semantic: SemanticMetric, Cap: CapNumber},
			{Name: "severity", Type: TypeString, Semantic: SemanticStatus, Cap: CapFull},
			{Name: "short_message", Type: TypeString, Semantic: SemanticDetail, Cap: CapNoList},
			{Name: "raw_data", Type: TypeString, Semantic: SemanticDetail, Cap: CapNone},
		},
		DefaultOrder: []Sort{
			{Field: "event_timestamp", Descending: true},
			{Field: "id", Descending: true},
		},
	}
}

func logsEntity() *Entity {
	return &Entity{
		Name:       "logs",
		Table:      "logs",
		TimeColumn: "timestamp",
		IDField:    "device_id",
		Columns: []Column{
			{Name: "timestamp", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "trace_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "span_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "device_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "severity_text", Type: TypeString, Semantic: SemanticStatus, Cap: CapFull},
			{Name: "severity_number", Type: TypeNumber, Semantic: SemanticMetric, Cap: CapNumber},
			{Name: "body", Type: TypeString, Semantic: SemanticDetail, Cap: CapNoList},
			{Name: "service_name", Type: TypeString, Semantic: SemanticName, Cap: CapFull},
			{Name: "service_version", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "scope_name", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "attributes", Type: TypeString, Semantic: SemanticDetail, Cap: CapNone},
		},
		DefaultOrder: []Sort{
			{Field: "timestamp", Descending: true},
			{Field: "trace_id", Descending: true},
		},
	}
}

func servicesEntity() *Entity {
	return &Entity{
		Name:       "services",
		Aliases:    []string{"service_status", "service"},
		Table:      "service_status",
		TimeColumn: "timestamp",
		IDField:    "device_id",
		Columns: []Column{
			{Name: "timestamp", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "poller_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "agent_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "service_name", Type: TypeString, Semantic: SemanticName, Cap: CapFull},
			{Name: "service_type", Type: TypeString, Semantic: SemanticDetail, Cap: CapFull},
			{Name: "device_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "available", Type: TypeBoolean, Semantic: SemanticStatus, Cap: CapBool},
			{Name: "message", Type: TypeString, Semantic: SemanticDetail, Cap: CapNoList},
			{Name: "details", Type: TypeString, Semantic: SemanticDetail, Cap: CapNone},
			{Name: "partition", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
		},
		DefaultOrder: []Sort{
			{Field: "timestamp", Descending: true},
			{Field: "poller_id", Descending: true},
		},
	}
}

func interfacesEntity() *Entity {
	return &Entity{
		Name:       "interfaces",
		Aliases:    []string{"discovered_interfaces"},
		Table:      "discovered_interfaces",
		TimeColumn: "timestamp",
		IDField:    "device_id",
		Columns: []Column{
			{Name: "timestamp", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "agent_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "poller_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "device_ip", Type: TypeString, Semantic: SemanticAddress, Cap: CapNoList},
			{Name: "device_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "if_index", Type: TypeNumber, Semantic: SemanticMetric, Cap: CapNumber},
			{Name: "if_name", Type: TypeString, Semantic: SemanticName, Cap: CapNoList},
			{Name: "if_descr", Type: TypeString, Semantic: SemanticDetail, Cap: CapNoList},
			{Name: "if_alias", Type: TypeString, Semantic: SemanticDetail, Cap: CapNoList},
			{Name: "if_speed", Type: TypeNumber, Semantic: SemanticMetric, Unit: "bps", Cap: CapNumber},
			{Name: "if_phys_address", Type: TypeString, Semantic: SemanticAddress, Cap: CapNoList},
			{Name: "ip_addresses", Type: TypeArray, Semantic: SemanticAddress, Cap: CapContains},
			{Name: "if_admin_status", Type: TypeNumber, Semantic: SemanticStatus, Cap: CapNumber},
			{Name: "if_oper_status", Type: TypeNumber, Semantic: SemanticStatus, Cap: CapNumber},
			{Name: "metadata", Type: TypeJSON, Semantic: SemanticDetail, Cap: CapNone},
		},
		DefaultOrder: []Sort{
			{Field: "timestamp", Descending: true},
			{Field: "device_id", Descending: true},
		},
	}
}

func deviceUpdatesEntity() *Entity {
	return &Entity{
		Name:       "device_updates",
		Table:      "device_updates",
		TimeColumn: "observed_at",
		IDField:    "device_id",
		Columns: []Column{
			{Name: "timestamp", SQLName: "observed_at", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "agent_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "poller_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "partition", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "device_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "discovery_source", Type: TypeString, Semantic: SemanticDetail, Cap: CapFull},
			{Name: "ip", Type: TypeString, Semantic: SemanticAddress, Cap: CapNoList},
			{Name: "mac", Type: TypeString, Semantic: SemanticAddress, Cap: CapNoList},
			{Name: "hostname", Type: TypeString, Semantic: SemanticName, Cap: CapNoList},
			{Name: "available", Type: TypeBoolean, Semantic: SemanticStatus, Cap: CapBool},
			{Name: "metadata", Type: TypeJSON, Semantic: SemanticDetail, Cap: CapNone},
		},
		DefaultOrder: []Sort{
			{Field: "timestamp", Descending: true},
			{Field: "device_id", Descending: true},
		},
	}
}

func tracesEntity() *Entity {
	return &Entity{
		Name:       "traces",
		Aliases:    []string{"otel_traces", "spans"},
		Table:      "otel_traces",
		TimeColumn: "timestamp",
		IDField:    "device_id",
		Columns: []Column{
			{Name: "timestamp", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "trace_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "span_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "parent_span_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "device_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "name", Type: TypeString, Semantic: SemanticName, Cap: CapNoList},
			{Name: "kind", Type: TypeNumber, Semantic: SemanticDetail, Cap: CapNumber},
			{Name: "service_name", Type: TypeString, Semantic: SemanticName, Cap: CapFull},
			{Name: "service_version", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "status_code", Type: TypeNumber, Semantic: SemanticStatus, Cap: CapNumber},
			{Name: "status_message", Type: TypeString, Semantic: SemanticDetail, Cap: CapNoList},
		},
		DefaultOrder: []Sort{
			{Field: "timestamp", Descending: true},
			{Field: "trace_id", Descending: true},
		},
	}
}

func otelMetricsEntity() *Entity {
	return &Entity{
		Name:       "otel_metrics",
		Table:      "otel_metrics",
		TimeColumn: "timestamp",
		IDField:    "device_id",
		Columns: []Column{
			{Name: "timestamp", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "trace_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "span_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "device_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "service_name", Type: TypeString, Semantic: SemanticName, Cap: CapFull},
			{Name: "span_name", Type: TypeString, Semantic: SemanticName, Cap: CapFull},
			{Name: "span_kind", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "duration_ms", Type: TypeNumber, Semantic: SemanticMetric, Unit: "ms", Cap: CapNumber},
			{Name: "metric_type", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "http_method", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "http_route", Type: TypeString, Semantic: SemanticDetail, Cap: CapNoList},
			{Name: "http_status_code", Type: TypeString, Semantic: SemanticStatus, Cap: CapEquality},
			{Name: "grpc_service", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "grpc_method", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "is_slow", Type: TypeBoolean, Semantic: SemanticStatus, Cap: CapBool},
			{Name: "component", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "level", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "unit", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
		},
		DefaultOrder: []Sort{
			{Field: "timestamp", Descending: true},
			{Field: "service_name", Descending: true},
		},
		Downsample: &DownsampleMeta{
			ValueColumn:   "duration_ms",
			DefaultSeries: "service_name",
			SeriesFields:  []string{"service_name", "span_name", "component"},
		},
	}
}

func timeseriesMetricsEntity(name string, aliases []string, forcedMetricType string) *Entity {
	return &Entity{
		Name:       name,
		Aliases:    aliases,
		Table:      "timeseries_metrics",
		TimeColumn: "timestamp",
		IDField:    "device_id",
		Columns: []Column{
			{Name: "timestamp", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "poller_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "agent_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "metric_name", Type: TypeString, Semantic: SemanticName, Cap: CapFull},
			{Name: "metric_type", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "device_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "value", Type: TypeNumber, Semantic: SemanticMetric, Cap: CapNumber},
			{Name: "unit", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "partition", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "target_device_ip", Type: TypeString, Semantic: SemanticAddress, Cap: CapNoList},
			{Name: "if_index", Type: TypeNumber, Semantic: SemanticMetric, Cap: CapNumber},
		},
		DefaultOrder: []Sort{
			{Field: "timestamp", Descending: true},
			{Field: "poller_id", Descending: true},
		},
		Downsample: &DownsampleMeta{
			ValueColumn:      "value",
			DefaultSeries:    "metric_name",
			SeriesFields:     []string{"metric_name", "device_id", "poller_id", "target_device_ip"},
			ForcedMetricType: forcedMetricType,
		},
	}
}

func cpuMetricsEntity() *Entity {
	return &Entity{
		Name:       "cpu_metrics",
		Table:      "cpu_metrics",
		TimeColumn: "timestamp",
		IDField:    "device_id",
		Columns: []Column{
			{Name: "timestamp", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "poller_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "agent_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "host_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "core_id", Type: TypeNumber, Semantic: SemanticDetail, Cap: CapNumber},
			{Name: "usage_percent", Type: TypeNumber, Semantic: SemanticMetric, Unit: "%", Cap: CapNumber},
			{Name: "frequency_hz", Type: TypeNumber, Semantic: SemanticMetric, Unit: "Hz", Cap: CapNumber},
			{Name: "label", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "cluster", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "device_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "partition", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
		},
		DefaultOrder: []Sort{
			{Field: "timestamp", Descending: true},
			{Field: "poller_id", Descending: true},
		},
		Downsample: &DownsampleMeta{
			ValueColumn:   "usage_percent",
			DefaultSeries: "core_id",
			SeriesFields:  []string{"core_id", "device_id", "poller_id", "host_id"},
		},
	}
}

func memoryMetricsEntity() *Entity {
	return &Entity{
		Name:       "memory_metrics",
		Table:      "memory_metrics",
		TimeColumn: "timestamp",
		IDField:    "device_id",
		Columns: []Column{
			{Name: "timestamp", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "poller_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "agent_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "host_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "total_bytes", Type: TypeNumber, Semantic: SemanticMetric, Unit: "bytes", Cap: CapNumber},
			{Name: "used_bytes", Type: TypeNumber, Semantic: SemanticMetric, Unit: "bytes", Cap: CapNumber},
			{Name: "available_bytes", Type: TypeNumber, Semantic: SemanticMetric, Unit: "bytes", Cap: CapNumber},
			{Name: "usage_percent", Type: TypeNumber, Semantic: SemanticMetric, Unit: "%", Cap: CapNumber},
			{Name: "device_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "partition", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
		},
		DefaultOrder: []Sort{
			{Field: "timestamp", Descending: true},
			{Field: "poller_id", Descending: true},
		},
		Downsample: &DownsampleMeta{
			ValueColumn:   "usage_percent",
			DefaultSeries: "device_id",
			SeriesFields:  []string{"device_id", "poller_id", "host_id"},
		},
	}
}

func diskMetricsEntity() *Entity {
	return &Entity{
		Name:       "disk_metrics",
		Table:      "disk_metrics",
		TimeColumn: "timestamp",
		IDField:    "device_id",
		Columns: []Column{
			{Name: "timestamp", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "poller_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "agent_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "host_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "mount_point", Type: TypeString, Semantic: SemanticName, Cap: CapEquality},
			{Name: "device_name", Type: TypeString, Semantic: SemanticName, Cap: CapEquality},
			{Name: "total_bytes", Type: TypeNumber, Semantic: SemanticMetric, Unit: "bytes", Cap: CapNumber},
			{Name: "used_bytes", Type: TypeNumber, Semantic: SemanticMetric, Unit: "bytes", Cap: CapNumber},
			{Name: "available_bytes", Type: TypeNumber, Semantic: SemanticMetric, Unit: "bytes", Cap: CapNumber},
			{Name: "usage_percent", Type: TypeNumber, Semantic: SemanticMetric, Unit: "%", Cap: CapNumber},
			{Name: "device_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "partition", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
		},
		DefaultOrder: []Sort{
			{Field: "timestamp", Descending: true},
			{Field: "poller_id", Descending: true},
		},
		Downsample: &DownsampleMeta{
			ValueColumn:   "usage_percent",
			DefaultSeries: "mount_point",
			SeriesFields:  []string{"mount_point", "device_id", "poller_id"},
		},
	}
}

func processMetricsEntity() *Entity {
	return &Entity{
		Name:       "process_metrics",
		Table:      "process_metrics",
		TimeColumn: "timestamp",
		IDField:    "device_id",
		Columns: []Column{
			{Name: "timestamp", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "poller_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "agent_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "host_id", Type: TypeString, Semantic: SemanticID, Cap: CapEquality},
			{Name: "pid", Type: TypeNumber, Semantic: SemanticID, Cap: CapNumber},
			{Name: "name", Type: TypeString, Semantic: SemanticName, Cap: CapFull},
			{Name: "cpu_usage", Type: TypeNumber, Semantic: SemanticMetric, Unit: "%", Cap: CapNumber},
			{Name: "memory_usage", Type: TypeNumber, Semantic: SemanticMetric, Unit: "bytes", Cap: CapNumber},
			{Name: "status", Type: TypeString, Semantic: SemanticStatus, Cap: CapEquality},
			{Name: "device_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "partition", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
		},
		DefaultOrder: []Sort{
			{Field: "timestamp", Descending: true},
			{Field: "poller_id", Descending: true},
		},
		Downsample: &DownsampleMeta{
			ValueColumn:   "cpu_usage",
			DefaultSeries: "name",
			SeriesFields:  []string{"name", "pid", "device_id", "poller_id"},
		},
	}
}

func flowsEntity() *Entity {
	return &Entity{
		Name:       "flows",
		Aliases:    []string{"netflow", "network_activity"},
		Table:      "ocsf_network_activity",
		TimeColumn: "time",
		IDField:    "device_id",
		Columns: []Column{
			{Name: "timestamp", SQLName: "time", Type: TypeTimestamp, Semantic: SemanticTime, Cap: CapNone},
			{Name: "device_id", Type: TypeString, Semantic: SemanticID, Cap: CapFull},
			{Name: "src_endpoint_ip", Type: TypeString, Semantic: SemanticAddress, Cap: CapNoList},
			{Name: "src_endpoint_port", Type: TypeNumber, Semantic: SemanticDetail, Cap: CapNumber},
			{Name: "dst_endpoint_ip", Type: TypeString, Semantic: SemanticAddress, Cap: CapNoList},
			{Name: "dst_endpoint_port", Type: TypeNumber, Semantic: SemanticDetail, Cap: CapNumber},
			{Name: "protocol_num", Type: TypeNumber, Semantic: SemanticDetail, Cap: CapNumber},
			{Name: "protocol_name", Type: TypeString, Semantic: SemanticDetail, Cap: CapEquality},
			{Name: "severity_id", Type: TypeNumber, Semantic: SemanticStatus, Cap: CapNumber},
			{Name: "bytes_total", Type: TypeNumber, Semantic: SemanticMetric, Unit: "bytes", Cap: CapNumber},
			{Name: "packets_total", Type: TypeNumber, Semantic: SemanticMetric, Cap: CapNumber},
			{Name: "sampler_address", Type: TypeString, Semantic: SemanticAddress, Cap: CapNoList},
		},
		DefaultOrder: []Sort{
			{Field: "timestamp", Descending: true},
		},
		Downsample: &DownsampleMeta{
			ValueColumn:   "bytes_total",
			DefaultSeries: "protocol_name",
			SeriesFields:  []string{"protocol_name", "src_endpoint_ip", "dst_endpoint_ip"},
		},
	}
}

func graphEntity() *Entity {
	return &Entity{
		Name:    "graph",
		Aliases: []string{"graph_cypher", "topology"},
		Graph:   true,
	}
}
