package sqlite

import (
	"context"

	"novaport-mcp/internal/logging"
)

// The FTS5 module is compile-time optional in the driver (build tag
// sqlite_fts5), so the virtual tables live outside the versioned
// migrations: creation is attempted on every open and tolerated to
// fail, leaving the search paths on their LIKE fallback. The backfill
// inserts cover databases first written by a binary without the module.
const ftsDDL = `
CREATE VIRTUAL TABLE IF NOT EXISTS decisions_fts USING fts5 (
    summary,
    rationale,
    implementation_details
);

CREATE TRIGGER IF NOT EXISTS decisions_fts_ai AFTER INSERT ON decisions BEGIN
    INSERT INTO decisions_fts (rowid, summary, rationale, implementation_details)
    VALUES (new.id, new.summary, coalesce(new.rationale, ''), coalesce(new.implementation_details, ''));
END;

CREATE TRIGGER IF NOT EXISTS decisions_fts_ad AFTER DELETE ON decisions BEGIN
    DELETE FROM decisions_fts WHERE rowid = old.id;
END;

CREATE TRIGGER IF NOT EXISTS decisions_fts_au AFTER UPDATE ON decisions BEGIN
    DELETE FROM decisions_fts WHERE rowid = old.id;
    INSERT INTO decisions_fts (rowid, summary, rationale, implementation_details)
    VALUES (new.id, new.summary, coalesce(new.rationale, ''), coalesce(new.implementation_details, ''));
END;

INSERT INTO decisions_fts (rowid, summary, rationale, implementation_details)
SELECT id, summary, coalesce(rationale, ''), coalesce(implementation_details, '')
FROM decisions WHERE id NOT IN (SELECT rowid FROM decisions_fts);

CREATE VIRTUAL TABLE IF NOT EXISTS custom_data_fts USING fts5 (
    category,
    key,
    value_text
);

CREATE TRIGGER IF NOT EXISTS custom_data_fts_ai AFTER INSERT ON custom_data BEGIN
    INSERT INTO custom_data_fts (rowid, category, key, value_text)
    VALUES (new.id, new.category, new.key, new.value);
END;

CREATE TRIGGER IF NOT EXISTS custom_data_fts_ad AFTER DELETE ON custom_data BEGIN
    DELETE FROM custom_data_fts WHERE rowid = old.id;
END;

CREATE TRIGGER IF NOT EXISTS custom_data_fts_au AFTER UPDATE ON custom_data BEGIN
    DELETE FROM custom_data_fts WHERE rowid = old.id;
    INSERT INTO custom_data_fts (rowid, category, key, value_text)
    VALUES (new.id, new.category, new.key, new.value);
END;

INSERT INTO custom_data_fts (rowid, category, key, value_text)
SELECT id, category, key, value
FROM custom_data WHERE id NOT IN (SELECT rowid FROM custom_data_fts);
`

// setupFTS installs the FTS5 tables and sync triggers when the module
// is available. Failure is not fatal.
func (s *Store) setupFTS(ctx context.Context) {
	if _, err := s.db.ExecContext(ctx, ftsDDL); err != nil {
		logging.WithComponent("sqlite").Warn("full-text search unavailable, using LIKE fallback",
			"error", err.Error())
	}
}
