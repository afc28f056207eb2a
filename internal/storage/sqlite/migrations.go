package sqlite

// schema contains the database schema DDL.
const schema = `
-- Pre-rendered panel images
CREATE TABLE IF NOT EXISTS generated_images (
    key TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    race_name TEXT,
    generated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Served requests
CREATE TABLE IF NOT EXISTS requests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL,
    language TEXT,
    timezone TEXT,
    status INTEGER,
    duration_ms INTEGER,
    served_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_requests_served_at ON requests(served_at);

-- Upstream API calls
CREATE TABLE IF NOT EXISTS api_calls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    endpoint TEXT NOT NULL,
    status INTEGER,
    duration_ms INTEGER,
    called_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_api_calls_called_at ON api_calls(called_at);
`
