package store

// schemaV1 is the initial schema. Tracks are the root entity, identified
// by filesystem path; artists, releases, labels, credits and tags are
// created on demand during enrichment. The tag count triggers keep the
// denormalized tags.count equal to the number of live links.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tracks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL DEFAULT '',
	artist TEXT NOT NULL DEFAULT '',
	album TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	format TEXT NOT NULL DEFAULT '',
	genre TEXT NOT NULL DEFAULT '',
	mbid TEXT,
	release_mbid TEXT,
	enriched INTEGER NOT NULL DEFAULT 0,
	missing INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tracks_enriched ON tracks(enriched);
CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(artist, album);
CREATE INDEX IF NOT EXISTS idx_tracks_release ON tracks(release_mbid);

CREATE TABLE IF NOT EXISTS artists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	sort_name TEXT NOT NULL DEFAULT '',
	mbid TEXT,
	description TEXT,
	image_path TEXT,
	wiki_url TEXT
);
CREATE INDEX IF NOT EXISTS idx_artists_name ON artists(name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_artists_mbid ON artists(mbid);

CREATE TABLE IF NOT EXISTS releases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	mbid TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	artist_id INTEGER REFERENCES artists(id),
	year INTEGER,
	release_type TEXT NOT NULL DEFAULT '',
	description TEXT,
	label_mbid TEXT,
	cover_path TEXT
);
CREATE INDEX IF NOT EXISTS idx_releases_artist ON releases(artist_id);

CREATE TABLE IF NOT EXISTS labels (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	mbid TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS credits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	track_id INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
	artist_id INTEGER REFERENCES artists(id),
	name TEXT NOT NULL,
	role TEXT NOT NULL,
	UNIQUE(track_id, name, role)
);
CREATE INDEX IF NOT EXISTS idx_credits_artist ON credits(artist_id);

CREATE TABLE IF NOT EXISTS track_artists (
	track_id INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
	artist_id INTEGER NOT NULL REFERENCES artists(id),
	PRIMARY KEY (track_id, artist_id)
);
CREATE INDEX IF NOT EXISTS idx_track_artists_artist ON track_artists(artist_id);

CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tag_links (
	tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	entity_type TEXT NOT NULL,
	entity_id INTEGER NOT NULL,
	PRIMARY KEY (tag_id, entity_type, entity_id)
);
CREATE INDEX IF NOT EXISTS idx_tag_links_entity ON tag_links(entity_type, entity_id);

CREATE TRIGGER IF NOT EXISTS tag_links_count_inc AFTER INSERT ON tag_links
BEGIN
	UPDATE tags SET count = count + 1 WHERE id = NEW.tag_id;
END;

CREATE TRIGGER IF NOT EXISTS tag_links_count_dec AFTER DELETE ON tag_links
BEGIN
	UPDATE tags SET count = count - 1 WHERE id = OLD.tag_id;
END;

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS migrations (
	name TEXT PRIMARY KEY,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
