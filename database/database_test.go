package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveur1/community-system/config"
)

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "db.sqlite?_foreign_keys=on", withForeignKeys("db.sqlite"))
	assert.Equal(t, "file:db.sqlite?cache=shared&_foreign_keys=on", withForeignKeys("file:db.sqlite?cache=shared"))
	assert.Equal(t, "db.sqlite?_fk=0", withForeignKeys("db.sqlite?_fk=0"))
}

func TestOpenMigratesAndCascades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := Open(config.Config{DBUrl: path})
	require.NoError(t, err)
	defer db.Close()

	res, err := db.Exec(`
		INSERT INTO survey (title, project_id, start_at, end_at)
		VALUES ('t', 'p', datetime('now'), datetime('now', '+1 day'))`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO section (survey_id, id, title, ord) VALUES (?, 's1', 'One', 1)`, id)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO section (survey_id, id, title, ord) VALUES (999, 's1', 'One', 1)`)
	assert.Error(t, err, "foreign keys are enforced")

	_, err = db.Exec(`DELETE FROM survey WHERE id = ?`, id)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM section`).Scan(&n))
	assert.Equal(t, 0, n)

	// reopening an up-to-date database is a no-op
	again, err := Open(config.Config{DBUrl: path})
	require.NoError(t, err)
	again.Close()
}
