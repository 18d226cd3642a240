package datarecording

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundRow struct {
	Seq          uint32
	StationID    uint32
	Timestamp    float64
	DLThroughput float64
	TxPowerOut   float64
}

func setupTestDB(t *testing.T) (DataRecorder, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSQLiteWithDB(db), db
}

func TestCreateTable(t *testing.T) {
	recorder, db := setupTestDB(t)

	recorder.CreateTable("rounds", roundRow{})

	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master " +
		"WHERE type='table' AND name='rounds';").Scan(&tableName)
	require.NoError(t, err)
	assert.Equal(t, "rounds", tableName)
	assert.Contains(t, recorder.ListTables(), "rounds")
}

func TestInsertAndFlush(t *testing.T) {
	recorder, db := setupTestDB(t)

	recorder.CreateTable("rounds", roundRow{})
	recorder.InsertData("rounds", roundRow{
		Seq:          3,
		StationID:    1,
		Timestamp:    0.75,
		DLThroughput: 8.5,
		TxPowerOut:   21.0,
	})
	recorder.Flush()

	var seq uint32
	var power float64
	err := db.QueryRow(
		"SELECT Seq, TxPowerOut FROM rounds WHERE StationID=1;").
		Scan(&seq, &power)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), seq)
	assert.Equal(t, 21.0, power)
}

func TestFlushIsRepeatable(t *testing.T) {
	recorder, db := setupTestDB(t)

	recorder.CreateTable("rounds", roundRow{})
	recorder.InsertData("rounds", roundRow{Seq: 1})
	recorder.Flush()
	recorder.Flush()

	recorder.InsertData("rounds", roundRow{Seq: 2})
	recorder.Flush()

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM rounds;").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInsertIntoUnknownTablePanics(t *testing.T) {
	recorder, _ := setupTestDB(t)

	assert.Panics(t, func() {
		recorder.InsertData("missing", roundRow{})
	})
}

func TestRejectsNestedStructs(t *testing.T) {
	recorder, _ := setupTestDB(t)

	type inner struct{ ID int }
	entry := struct{ Attribute inner }{}

	assert.Panics(t, func() {
		recorder.CreateTable("bad", entry)
	})
}

func TestReaderRoundTrip(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	recorder := NewSQLiteWithDB(db)
	recorder.CreateTable("rounds", roundRow{})
	for i := 0; i < 10; i++ {
		recorder.InsertData("rounds", roundRow{
			Seq:       uint32(i),
			StationID: uint32(i % 2),
			Timestamp: 0.25 * float64(i+1),
		})
	}
	recorder.Flush()

	reader := NewReaderWithDB(db)
	reader.MapTable("rounds", roundRow{})

	results, total, err := reader.Query(context.Background(), "rounds",
		QueryParams{
			Where:   "StationID = ?",
			Args:    []any{1},
			OrderBy: "Seq DESC",
			Limit:   3,
		})
	require.NoError(t, err)

	assert.Equal(t, 5, total)
	require.Len(t, results, 3)

	first, ok := results[0].(*roundRow)
	require.True(t, ok)
	assert.Equal(t, uint32(9), first.Seq)
}
