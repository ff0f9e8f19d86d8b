package constants

// Postgres query templates for the relational-server store. Table names are
// injected with fmt.Sprintf because an optional schema prefix qualifies them.
const (
	PGSelectShows = `
	SELECT id, updated_at, doc FROM %s ORDER BY updated_at DESC
	`

	PGSelectShowByID = `
	SELECT doc FROM %s WHERE id = $1
	`

	PGUpsertShow = `
	INSERT INTO %s (id, updated_at, doc) VALUES ($1, $2, $3)
	ON CONFLICT (id) DO UPDATE SET updated_at = EXCLUDED.updated_at, doc = EXCLUDED.doc
	`

	PGDeleteShow = `
	DELETE FROM %s WHERE id = $1
	`

	PGSelectArchived = `
	SELECT id, archived_at, doc FROM %s ORDER BY archived_at DESC
	`

	PGSelectArchivedByID = `
	SELECT doc FROM %s WHERE id = $1
	`

	PGUpsertArchived = `
	INSERT INTO %s (id, archived_at, doc) VALUES ($1, $2, $3)
	ON CONFLICT (id) DO UPDATE SET archived_at = EXCLUDED.archived_at, doc = EXCLUDED.doc
	`

	PGDeleteArchived = `
	DELETE FROM %s WHERE id = $1
	`

	PGSelectStaff = `
	SELECT doc FROM %s WHERE id = 1
	`

	PGUpsertStaff = `
	INSERT INTO %s (id, doc) VALUES (1, $1)
	ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc
	`

	PGSeedStaff = `
	INSERT INTO %s (id, doc) VALUES (1, $1)
	ON CONFLICT (id) DO NOTHING
	`
)
