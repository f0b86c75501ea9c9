package sqlite

// schema contains the database schema DDL. Instants are stored as unix
// milliseconds and calendar dates as YYYY-MM-DD text.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL,
    auth_token TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS glucose_settings (
    user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    timezone TEXT NOT NULL DEFAULT '',
    target_low REAL,
    target_high REAL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS glucose_readings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    value REAL NOT NULL CHECK (value BETWEEN 20 AND 600),
    reading_type TEXT NOT NULL,
    response TEXT NOT NULL,
    reading_at INTEGER NOT NULL,
    reading_date TEXT NOT NULL,
    time_of_day TEXT NOT NULL,
    related_meal TEXT,
    notes TEXT,
    symptoms TEXT,
    influencing_factors TEXT,
    target_low REAL,
    target_high REAL,
    measurement_device TEXT,
    confidence TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_glucose_readings_user_time ON glucose_readings(user_id, reading_at);
`
