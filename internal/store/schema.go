package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    truncated INTEGER NOT NULL DEFAULT 0,
    inputs INTEGER NOT NULL DEFAULT 0,
    schemas INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    relationships INTEGER NOT NULL DEFAULT 0,
    average_score REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS relationships (
    schema_a_owner TEXT NOT NULL,
    schema_a_role TEXT NOT NULL,
    schema_b_owner TEXT NOT NULL,
    schema_b_role TEXT NOT NULL,
    kind TEXT NOT NULL,
    score REAL NOT NULL,
    jaccard REAL NOT NULL,
    common_fields TEXT NOT NULL DEFAULT '[]',
    UNIQUE (schema_a_owner, schema_a_role, schema_b_owner, schema_b_role, kind)
);

CREATE INDEX IF NOT EXISTS idx_relationships_a ON relationships(schema_a_owner);
CREATE INDEX IF NOT EXISTS idx_relationships_b ON relationships(schema_b_owner);
CREATE INDEX IF NOT EXISTS idx_relationships_kind ON relationships(kind);

CREATE TABLE IF NOT EXISTS skipped_schemas (
    owner TEXT NOT NULL,
    role TEXT NOT NULL,
    reason TEXT NOT NULL,
    PRIMARY KEY (owner, role)
);

CREATE TABLE IF NOT EXISTS taxonomy_nodes (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    parent_id INTEGER,
    depth INTEGER NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_taxonomy_parent ON taxonomy_nodes(parent_id);
`
