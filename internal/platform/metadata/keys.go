package metadata

// --- SQLite Keys ---
// These keys are used for the 'key' column in the 'metadata' SQLite table.
const (
	// SchemaVersionKey stores the schema revision the local cache database was
	// last migrated to. Bumped manually when a migration changes table shapes.
	SchemaVersionKey = "schema_version"

	// LastTypeOverviewSyncKey stores the RFC3339 timestamp of the last
	// successful full refresh of the type overview.
	LastTypeOverviewSyncKey = "last_type_overview_sync"

	// LastGenerationOverviewSyncKey stores the RFC3339 timestamp of the last
	// successful full refresh of the generation overview.
	LastGenerationOverviewSyncKey = "last_generation_overview_sync"
)

// SchemaVersion 是当前代码期望的本地缓存库版本。
const SchemaVersion = "1"
