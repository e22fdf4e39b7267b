package store

// Schema for the byline archive. Executed on every Open; all statements are
// idempotent so re-opening an existing database is safe.
//
// Revision rows are append-only and carry no uniqueness constraint on
// (article_id, stage, agent): duplicates are possible when resume calls race,
// and readers are required to tolerate them.
const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	prompt         TEXT NOT NULL,
	target_length  TEXT NOT NULL,
	research_scope TEXT NOT NULL,
	status         TEXT NOT NULL,
	current_agent  TEXT NOT NULL DEFAULT '',
	status_message TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS article_revisions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	article_id TEXT NOT NULL REFERENCES articles(id),
	stage      TEXT NOT NULL,
	agent      TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_status ON articles(status);
CREATE INDEX IF NOT EXISTS idx_revisions_article ON article_revisions(article_id, created_at);
`
