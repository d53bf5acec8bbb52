package sqlstore

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		username_key TEXT NOT NULL UNIQUE,
		email TEXT UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL,
		disabled BOOLEAN NOT NULL DEFAULT FALSE,
		disabled_reason TEXT,
		disabled_by TEXT,
		last_login BIGINT,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS face_profiles (
		account_id TEXT PRIMARY KEY,
		backend TEXT NOT NULL,
		embedding TEXT NOT NULL,
		secondary TEXT,
		enrolled_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS attempt_counters (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		channel TEXT NOT NULL,
		failed_count INTEGER NOT NULL,
		locked_until BIGINT,
		version BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS attempt_counters_locked_until ON attempt_counters (locked_until)`,
	`CREATE TABLE IF NOT EXISTS backup_codes (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		code_hash TEXT NOT NULL,
		code_cipher TEXT NOT NULL,
		used BOOLEAN NOT NULL DEFAULT FALSE,
		used_at BIGINT,
		revealed BOOLEAN NOT NULL DEFAULT FALSE,
		superseded BOOLEAN NOT NULL DEFAULT FALSE,
		generated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS backup_codes_account ON backup_codes (account_id, generated_at)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		account_id TEXT NOT NULL,
		channel TEXT,
		outcome TEXT,
		operator_id TEXT,
		client TEXT,
		details TEXT,
		occurred_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_events_account ON audit_events (account_id, occurred_at)`,
}
