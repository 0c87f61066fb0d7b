package introspect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTarget_DSN(t *testing.T) {
	dsn := Target{
		Host:     "db.internal",
		Port:     3307,
		User:     "pine",
		Password: "hunter2",
		Database: "mydb",
	}.DSN()

	assert.True(t, strings.HasPrefix(dsn, "pine:hunter2@tcp(db.internal:3307)/mydb"), dsn)
}

func TestBuildSnapshot(t *testing.T) {
	cols := []columnRow{
		{Table: "people", Name: "id", Type: "int"},
		{Table: "people", Name: "name", Type: "varchar(255)"},
		{Table: "preferences", Name: "id", Type: "int"},
		{Table: "preferences", Name: "personId", Type: "int"},
	}
	pks := []keyRow{
		{Table: "people", Column: "id"},
		{Table: "preferences", Column: "id"},
	}
	fks := []fkRow{
		{Table: "preferences", Constraint: "fk_pref_person", Column: "personId",
			RefTable: "people", RefColumn: "id"},
	}

	snap := buildSnapshot("mydb", cols, pks, fks)

	assert.Equal(t, "mydb", snap.Database)
	assert.Equal(t, []string{"people", "preferences"}, snap.Tables())

	people, ok := snap.Table("people")
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, people.PrimaryKey)
	require.Len(t, people.Columns, 2)
	assert.Equal(t, "name", people.Columns[1].Name)

	edges := snap.EdgesBetween("preferences", "people")
	require.Len(t, edges, 1)
	assert.Equal(t, []string{"personId"}, edges[0].FromColumns)
	assert.Equal(t, []string{"id"}, edges[0].ToColumns)
}

func TestBuildSnapshot_CompositeForeignKey(t *testing.T) {
	cols := []columnRow{
		{Table: "friendMap", Name: "friendA", Type: "int"},
		{Table: "friendMap", Name: "friendB", Type: "int"},
		{Table: "friendshipProperties", Name: "friendA", Type: "int"},
		{Table: "friendshipProperties", Name: "friendB", Type: "int"},
	}
	pks := []keyRow{
		{Table: "friendMap", Column: "friendA"},
		{Table: "friendMap", Column: "friendB"},
	}
	// Two rows of one constraint collapse into a single edge with ordered
	// column tuples.
	fks := []fkRow{
		{Table: "friendshipProperties", Constraint: "fk_props", Column: "friendA",
			RefTable: "friendMap", RefColumn: "friendA"},
		{Table: "friendshipProperties", Constraint: "fk_props", Column: "friendB",
			RefTable: "friendMap", RefColumn: "friendB"},
	}

	snap := buildSnapshot("mydb", cols, pks, fks)

	assert.Equal(t, []string{"friendA", "friendB"}, snap.PrimaryKey("friendMap"))

	edges := snap.EdgesBetween("friendshipProperties", "friendMap")
	require.Len(t, edges, 1)
	assert.Equal(t, []string{"friendA", "friendB"}, edges[0].FromColumns)
	assert.Equal(t, []string{"friendA", "friendB"}, edges[0].ToColumns)
}

func TestBuildSnapshot_SeparateConstraintsStaySeparate(t *testing.T) {
	fks := []fkRow{
		{Table: "orders", Constraint: "fk_customer", Column: "customerId",
			RefTable: "customers", RefColumn: "id"},
		{Table: "orders", Constraint: "fk_billed", Column: "billedCustomerId",
			RefTable: "customers", RefColumn: "id"},
	}

	snap := buildSnapshot("crm", nil, nil, fks)
	edges := snap.EdgesBetween("orders", "customers")
	assert.Len(t, edges, 2)
}
