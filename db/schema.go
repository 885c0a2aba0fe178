// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for contacts, history, notes and insight cache
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	email TEXT,
	lifecycle_stage TEXT NOT NULL DEFAULT 'Prospect',
	tags TEXT NOT NULL DEFAULT '[]',
	confidence_score REAL NOT NULL DEFAULT 0.1 CHECK(confidence_score >= 0 AND confidence_score <= 1),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contacts_user ON contacts(user_id);
CREATE INDEX IF NOT EXISTS idx_contacts_user_email ON contacts(user_id, email);

CREATE TABLE IF NOT EXISTS calendar_events (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	contact_id TEXT,
	title TEXT NOT NULL,
	description TEXT,
	attendees TEXT NOT NULL DEFAULT '[]',
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	event_type TEXT,
	business_category TEXT,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_calendar_events_user_start ON calendar_events(user_id, start_time DESC);
CREATE INDEX IF NOT EXISTS idx_calendar_events_contact ON calendar_events(contact_id);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	contact_id TEXT,
	counterparty_email TEXT,
	subject TEXT NOT NULL DEFAULT '',
	body TEXT,
	direction TEXT NOT NULL CHECK(direction IN ('inbound', 'outbound')),
	occurred_at DATETIME NOT NULL,
	thread_id TEXT,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_user_occurred ON messages(user_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_contact ON messages(contact_id);
CREATE INDEX IF NOT EXISTS idx_messages_counterparty ON messages(user_id, counterparty_email);

CREATE TABLE IF NOT EXISTS contact_notes (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	contact_id TEXT NOT NULL,
	content TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT 'manual',
	created_at DATETIME NOT NULL,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_contact_notes_contact ON contact_notes(contact_id, created_at DESC);

CREATE TABLE IF NOT EXISTS insight_cache (
	user_id TEXT NOT NULL,
	contact_id TEXT NOT NULL,
	result TEXT NOT NULL,
	computed_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, contact_id),
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
