package store

// schemaSQL is the DDL for the analysis history tables.
const schemaSQL = `
-- One row per analyzed contract
CREATE TABLE IF NOT EXISTS analyses (
    id INTEGER PRIMARY KEY,
    contract_id TEXT NOT NULL,
    contract_name TEXT NOT NULL,
    source_path TEXT,
    provider TEXT NOT NULL,
    model TEXT,
    detection_method TEXT,
    process_count INTEGER NOT NULL,
    dependency_edges INTEGER DEFAULT 0,
    confidence REAL NOT NULL,
    elapsed_seconds REAL DEFAULT 0,
    report JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_analyses_contract_id ON analyses(contract_id);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
`
