package repository

// schema is executed at connect time. Idempotent so restarts are safe.
const schema = `
CREATE TABLE IF NOT EXISTS competitors (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	belt           INT NOT NULL,
	weight         DOUBLE PRECISION,
	start_rating   DOUBLE PRECISION NOT NULL,
	current_rating DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	id          TEXT PRIMARY KEY,
	side_a      TEXT NOT NULL REFERENCES competitors(id),
	side_b      TEXT NOT NULL REFERENCES competitors(id),
	outcome     TEXT NOT NULL,
	ts          TIMESTAMPTZ NOT NULL,
	seq         BIGSERIAL,
	event_id    TEXT NOT NULL DEFAULT '',
	method      TEXT NOT NULL DEFAULT '',
	duration_ns BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_matches_replay_order ON matches (ts, seq);

CREATE TABLE IF NOT EXISTS rating_history (
	id            BIGSERIAL PRIMARY KEY,
	match_id      TEXT NOT NULL,
	competitor_id TEXT NOT NULL,
	rating_before DOUBLE PRECISION NOT NULL,
	rating_after  DOUBLE PRECISION NOT NULL,
	delta         DOUBLE PRECISION NOT NULL,
	ts            TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_competitor ON rating_history (competitor_id, id);
`
