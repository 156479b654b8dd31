package postgres

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(migrationsFS, migrationsDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for i, name := range files {
		body, err := fs.ReadFile(migrationsFS, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
		assert.True(t, strings.HasPrefix(name, migrationsDir+"/0000"), name)
		if i > 0 {
			assert.Less(t, files[i-1], name)
		}
	}

	var all strings.Builder
	for _, name := range files {
		body, _ := fs.ReadFile(migrationsFS, name)
		all.Write(body)
	}
	assert.Contains(t, all.String(), "UNIQUE (definition_id, slot_key)")
}

func TestMigrate_UnknownCommand(t *testing.T) {
	t.Parallel()

	db, _ := newMockDB(t)
	err := Migrate(context.Background(), db, "sideways", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}
