package database

const schema = `
-- Opaque per-device blobs keyed by name
CREATE TABLE device_store (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_device_store_updated_at ON device_store(updated_at);
`

// migrations holds incremental schema changes applied in order from the
// current user_version. migrations[0] is empty because version 0 uses the
// base schema.
var migrations = []string{
	"",
}
