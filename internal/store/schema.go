package store

// Orders keep their status in a column; lager links are plain ids with no
// foreign key, so a deleted item leaves a dangling reference instead of
// cascading into orders.
const schema = `
CREATE TABLE IF NOT EXISTS lager (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	price DOUBLE PRECISION NOT NULL DEFAULT 0,
	color TEXT NOT NULL DEFAULT '',
	quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	location TEXT NOT NULL DEFAULT 'House',
	image TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS orders (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	price DOUBLE PRECISION NOT NULL DEFAULT 0,
	paid BOOLEAN NOT NULL DEFAULT FALSE,
	customer TEXT NOT NULL,
	due_date TEXT NOT NULL DEFAULT '',
	quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
	color TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	image TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'new',
	lager_id BIGINT
);

CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status);

CREATE TABLE IF NOT EXISTS email_config (
	id BIGSERIAL PRIMARY KEY,
	enabled BOOLEAN NOT NULL DEFAULT FALSE,
	sender_email TEXT NOT NULL DEFAULT '',
	app_password TEXT NOT NULL DEFAULT '',
	receiver_email TEXT NOT NULL DEFAULT '',
	days_before INTEGER NOT NULL DEFAULT 2
);

CREATE TABLE IF NOT EXISTS notification_log (
	notify_key TEXT PRIMARY KEY
);
`

// InitSchema creates all tables if they do not exist yet.
func (s *Store) InitSchema() error {
	_, err := s.db.Exec(schema)
	return err
}
