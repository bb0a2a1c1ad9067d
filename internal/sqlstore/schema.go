package sqlstore

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS staff (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	lat REAL NOT NULL,
	lng REAL NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	destination_name TEXT NOT NULL,
	destination_lat REAL NOT NULL,
	destination_lng REAL NOT NULL,
	grid_size INTEGER NOT NULL,
	sigma REAL NOT NULL,
	learning_rate REAL NOT NULL,
	epochs INTEGER NOT NULL,
	min_passengers INTEGER NOT NULL,
	max_passengers INTEGER NOT NULL,
	cost_per_km REAL NOT NULL,
	seed INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL UNIQUE,
	destination_lat REAL NOT NULL,
	destination_lng REAL NOT NULL,
	params TEXT NOT NULL,
	summary TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS run_assignments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL,
	route_name TEXT NOT NULL DEFAULT '',
	cluster_id INTEGER NOT NULL,
	stop_order INTEGER NOT NULL,
	staff_id INTEGER NOT NULL,
	staff_name TEXT NOT NULL DEFAULT '',
	staff_address TEXT NOT NULL DEFAULT '',
	lat REAL NOT NULL,
	lng REAL NOT NULL,
	distance_from_prev_km REAL NOT NULL DEFAULT 0,
	unassigned INTEGER NOT NULL DEFAULT 0,
	reason TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS directions_cache (
	cache_key TEXT PRIMARY KEY,
	distance_meters REAL NOT NULL,
	duration_secs REAL NOT NULL,
	geometry TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_staff_name ON staff(name);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_run_assignments_run ON run_assignments(run_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS staff (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	lat DOUBLE PRECISION NOT NULL,
	lng DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	destination_name TEXT NOT NULL,
	destination_lat DOUBLE PRECISION NOT NULL,
	destination_lng DOUBLE PRECISION NOT NULL,
	grid_size INTEGER NOT NULL,
	sigma DOUBLE PRECISION NOT NULL,
	learning_rate DOUBLE PRECISION NOT NULL,
	epochs INTEGER NOT NULL,
	min_passengers INTEGER NOT NULL,
	max_passengers INTEGER NOT NULL,
	cost_per_km DOUBLE PRECISION NOT NULL,
	seed BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL UNIQUE,
	destination_lat DOUBLE PRECISION NOT NULL,
	destination_lng DOUBLE PRECISION NOT NULL,
	params TEXT NOT NULL,
	summary TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS run_assignments (
	id BIGSERIAL PRIMARY KEY,
	run_id BIGINT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	route_name TEXT NOT NULL DEFAULT '',
	cluster_id INTEGER NOT NULL,
	stop_order INTEGER NOT NULL,
	staff_id BIGINT NOT NULL,
	staff_name TEXT NOT NULL DEFAULT '',
	staff_address TEXT NOT NULL DEFAULT '',
	lat DOUBLE PRECISION NOT NULL,
	lng DOUBLE PRECISION NOT NULL,
	distance_from_prev_km DOUBLE PRECISION NOT NULL DEFAULT 0,
	unassigned BOOLEAN NOT NULL DEFAULT FALSE,
	reason TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS directions_cache (
	cache_key TEXT PRIMARY KEY,
	distance_meters DOUBLE PRECISION NOT NULL,
	duration_secs DOUBLE PRECISION NOT NULL,
	geometry TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_staff_name ON staff(name);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_run_assignments_run ON run_assignments(run_id);
`

const insertDefaultSettings = `INSERT INTO settings
	(id, destination_name, destination_lat, destination_lng, grid_size, sigma, learning_rate,
	 epochs, min_passengers, max_passengers, cost_per_km, seed)
	VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO NOTHING`
