package repository

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabianbadoi/pine/internal/db"
	"github.com/fabianbadoi/pine/internal/schema"
)

func testRepo(t *testing.T) *SnapshotRepo {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.sqlite")

	conn, err := db.OpenSQLite(path, "write", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.RunMigrations(conn))

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewSnapshotRepo(conn, logger)
}

func testSnapshot() *schema.Snapshot {
	return schema.NewSnapshot("mydb", []*schema.Table{
		{
			Name: "people",
			Columns: []schema.Column{
				{Name: "id", Type: "int"},
				{Name: "name", Type: "varchar(255)"},
			},
			PrimaryKey: []string{"id"},
		},
		{
			Name: "friendMap",
			Columns: []schema.Column{
				{Name: "friendB", Type: "int"},
				{Name: "friendA", Type: "int"},
			},
			// Key order differs from column order on purpose.
			PrimaryKey: []string{"friendA", "friendB"},
		},
		{
			Name: "preferences",
			Columns: []schema.Column{
				{Name: "id", Type: "int"},
				{Name: "personId", Type: "int"},
			},
			PrimaryKey: []string{"id"},
			ForeignKeys: []schema.ForeignKey{
				{
					FromTable:   "preferences",
					FromColumns: []string{"personId"},
					ToTable:     "people",
					ToColumns:   []string{"id"},
				},
			},
		},
	})
}

func TestSnapshotRepo_SaveAndLoad(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "dev", testSnapshot()))

	loaded, err := repo.Load(ctx, "dev", "mydb")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, []string{"people", "friendMap", "preferences"}, loaded.Tables())

	people, ok := loaded.Table("people")
	require.True(t, ok)
	assert.Equal(t, []schema.Column{
		{Name: "id", Type: "int"},
		{Name: "name", Type: "varchar(255)"},
	}, people.Columns)
	assert.Equal(t, []string{"id"}, people.PrimaryKey)

	// Composite key order survives the round trip even when it differs
	// from column order.
	assert.Equal(t, []string{"friendA", "friendB"}, loaded.PrimaryKey("friendMap"))

	edges := loaded.EdgesBetween("preferences", "people")
	require.Len(t, edges, 1)
	assert.Equal(t, []string{"personId"}, edges[0].FromColumns)
	assert.Equal(t, []string{"id"}, edges[0].ToColumns)
}

func TestSnapshotRepo_LoadMissingIsNil(t *testing.T) {
	repo := testRepo(t)

	loaded, err := repo.Load(context.Background(), "dev", "absent")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSnapshotRepo_SaveReplacesPrevious(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "dev", testSnapshot()))

	smaller := schema.NewSnapshot("mydb", []*schema.Table{
		{Name: "people", Columns: []schema.Column{{Name: "id", Type: "int"}}},
	})
	require.NoError(t, repo.Save(ctx, "dev", smaller))

	loaded, err := repo.Load(ctx, "dev", "mydb")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []string{"people"}, loaded.Tables())

	people, _ := loaded.Table("people")
	assert.Len(t, people.Columns, 1)
}

func TestSnapshotRepo_ContextsAreIsolated(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "dev", testSnapshot()))

	loaded, err := repo.Load(ctx, "prod", "mydb")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
