package sqlite

// position orders rows the way the JSON store orders its array: an update
// keeps the row's position, an insert goes last.
const createTeas = `CREATE TABLE IF NOT EXISTS teas (
    position INTEGER PRIMARY KEY AUTOINCREMENT,
    id INTEGER NOT NULL UNIQUE,
    name TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL,
    extra TEXT
);`

const (
	selectTeas      = `SELECT id, name, description, extra FROM teas ORDER BY position ASC`
	selectTeaByName = `SELECT id, name, description, extra FROM teas WHERE name = ?`
	selectIDStats   = `SELECT COUNT(*), COALESCE(MAX(id), 0) FROM teas`
	selectNameOwner = `SELECT 1 FROM teas WHERE name = ? AND id <> ? LIMIT 1`
	selectIDOwner   = `SELECT 1 FROM teas WHERE id = ? AND name <> ? LIMIT 1`
	updateTeaByID   = `UPDATE teas SET name = ?, description = ?, extra = ? WHERE id = ?`
	insertTea       = `INSERT INTO teas (id, name, description, extra) VALUES (?, ?, ?, ?)`
)
