package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	WidgetID int64  `json:"widget_id"`
	OwnerID  int64  `json:"owner_id"`
	Name     string `json:"name"`
}

const (
	widgetsGetByID   = "WidgetsGetByID"
	widgetsByOwner   = "WidgetsByOwner"
	widgetsUncached  = "WidgetsUncached"
	selectByIDRegexp = `SELECT \* FROM widgets WHERE widget_id = \$1`
	byOwnerRegexp    = `SELECT \* FROM widgets WHERE owner_id = \$1 ORDER BY widget_id LIMIT \$2 OFFSET \$3`
)

func widgetTable() *Table {
	return &Table{
		Struct:           widget{},
		Name:             "widgets",
		PrimaryKeyField:  "widget_id",
		PrimaryQueryName: widgetsGetByID,
		InsertQuery:      `INSERT INTO widgets (owner_id, name) VALUES (:owner_id, :name) RETURNING *`,
		UpdateQuery:      `UPDATE widgets SET name = :name WHERE widget_id = :widget_id RETURNING *`,
		DeleteQuery:      `DELETE FROM widgets WHERE widget_id = :widget_id RETURNING *`,
		Queries: []*Query{
			{
				Name:         widgetsGetByID,
				CacheKey:     "widget_id=%v",
				Query:        `SELECT * FROM widgets WHERE widget_id = :widget_id`,
				InsertAction: CacheSet,
				UpdateAction: CacheSet,
				SelectAction: CacheSet,
			},
			{
				Name:                    widgetsByOwner,
				CacheKey:                "owner_id=%v",
				Query:                   `SELECT * FROM widgets WHERE owner_id = :owner_id ORDER BY widget_id`,
				CachePrimaryQueryStored: widgetsGetByID,
				InsertAction:            CacheRPush,
				UpdateAction:            CacheNoAction,
				SelectAction:            CacheRPush,
			},
			{
				Name:         widgetsUncached,
				Query:        `SELECT * FROM widgets WHERE name = :name`,
				InsertAction: CacheNoAction,
				UpdateAction: CacheNoAction,
				SelectAction: CacheNoAction,
			},
		},
	}
}

type fixture struct {
	s    Storage
	mock sqlmock.Sqlmock
	mr   *miniredis.Miniredis
}

func newFixture(t *testing.T, noCache bool) *fixture {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	db := sqlx.NewDb(conn, "postgres")

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	s, err := New(&Config{
		ReadOnlyDbConn:  db,
		WriteOnlyDbConn: db,
		Redis:           client,
		Tables:          []*Table{widgetTable()},
		ServiceName:     "test",
		DefaultTTL:      60,
		DoNotUseCache:   noCache,
	})
	require.NoError(t, err)

	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return &fixture{s: s, mock: mock, mr: mr}
}

func widgetRows(ws ...widget) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"widget_id", "owner_id", "name"})
	for _, w := range ws {
		rows.AddRow(w.WidgetID, w.OwnerID, w.Name)
	}
	return rows
}

func TestSelectCachesRow(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.mock.ExpectQuery(selectByIDRegexp).WithArgs(int64(1)).WillReturnRows(widgetRows(widget{1, 7, "one"}))

	w := &widget{WidgetID: 1}
	require.NoError(t, f.s.Select(ctx, w, widgetsGetByID))
	assert.Equal(t, "one", w.Name)
	assert.True(t, f.mr.Exists("service:test|widgets|widget_id=1"))
	assert.Equal(t, 60, int(f.mr.TTL("service:test|widgets|widget_id=1").Seconds()))

	// answered from redis; no second query is expected
	again := &widget{WidgetID: 1}
	require.NoError(t, f.s.Select(ctx, again, widgetsGetByID))
	assert.Equal(t, *w, *again)
}

func TestSelectNotFound(t *testing.T) {
	f := newFixture(t, false)

	f.mock.ExpectQuery(selectByIDRegexp).WithArgs(int64(9)).WillReturnRows(widgetRows())

	err := f.s.Select(context.Background(), &widget{WidgetID: 9}, widgetsGetByID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, f.mr.Exists("service:test|widgets|widget_id=9"))
}

func TestSelectFallsBackWhenRedisIsDown(t *testing.T) {
	f := newFixture(t, false)
	f.mr.Close()

	f.mock.ExpectQuery(selectByIDRegexp).WithArgs(int64(1)).WillReturnRows(widgetRows(widget{1, 7, "one"}))

	w := &widget{WidgetID: 1}
	require.NoError(t, f.s.Select(context.Background(), w, widgetsGetByID))
	assert.Equal(t, "one", w.Name)
}

func TestSelectAllBuildsAndPagesList(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.mock.ExpectQuery(byOwnerRegexp).
		WithArgs(int64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(widgetRows(widget{1, 7, "one"}, widget{2, 7, "two"}, widget{3, 7, "three"}))

	var page []widget
	require.NoError(t, f.s.SelectAll(ctx, &widget{OwnerID: 7}, &page, widgetsByOwner, &SelectOptions{Limit: 2}))
	require.Len(t, page, 2)
	assert.Equal(t, "two", page[1].Name)

	ids, err := f.mr.List("service:test|widgets|owner_id=7")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.True(t, f.mr.Exists("service:test|widgets|widget_id=3"), "rows are cached on their primary key")

	// second page straight from redis
	var rest []*widget
	require.NoError(t, f.s.SelectAll(ctx, &widget{OwnerID: 7}, &rest, widgetsByOwner, &SelectOptions{Limit: 2, Offset: 2}))
	require.Len(t, rest, 1)
	assert.Equal(t, int64(3), rest[0].WidgetID)
}

func TestSelectAllSkipsRowsDeletedUnderAStaleList(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.mr.RPush("service:test|widgets|owner_id=7", "1", "2")
	require.NoError(t, err)
	require.NoError(t, f.mr.Set("service:test|widgets|widget_id=1", `{"widget_id":1,"owner_id":7,"name":"one"}`))
	f.mock.ExpectQuery(selectByIDRegexp).WithArgs(int64(2)).WillReturnRows(widgetRows())

	var out []widget
	require.NoError(t, f.s.SelectAll(ctx, &widget{OwnerID: 7}, &out, widgetsByOwner, nil))
	require.Len(t, out, 1)
	assert.Equal(t, "one", out[0].Name)
}

func TestSelectAllWithoutCache(t *testing.T) {
	f := newFixture(t, true)

	f.mock.ExpectQuery(byOwnerRegexp).
		WithArgs(int64(7), 5, 10).
		WillReturnRows(widgetRows(widget{11, 7, "eleven"}))

	var out []widget
	require.NoError(t, f.s.SelectAll(context.Background(), &widget{OwnerID: 7}, &out, widgetsByOwner, &SelectOptions{Limit: 5, Offset: 10}))
	assert.Len(t, out, 1)
	assert.Empty(t, f.mr.Keys())
}

func TestSelectAllRejectsWrongDest(t *testing.T) {
	f := newFixture(t, false)

	var out []string
	err := f.s.SelectAll(context.Background(), &widget{OwnerID: 7}, &out, widgetsByOwner, nil)
	assert.Error(t, err)

	err = f.s.SelectAll(context.Background(), &widget{OwnerID: 7}, out, widgetsByOwner, nil)
	assert.Error(t, err)
}

func TestInsertPushesOntoCachedListsOnly(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.mr.RPush("service:test|widgets|owner_id=7", "1")
	require.NoError(t, err)

	f.mock.ExpectQuery(`INSERT INTO widgets`).WithArgs(int64(7), "two").WillReturnRows(widgetRows(widget{2, 7, "two"}))
	f.mock.ExpectQuery(`INSERT INTO widgets`).WithArgs(int64(8), "three").WillReturnRows(widgetRows(widget{3, 8, "three"}))

	w := &widget{OwnerID: 7, Name: "two"}
	require.NoError(t, f.s.Insert(ctx, w))
	assert.Equal(t, int64(2), w.WidgetID, "RETURNING * is scanned back")

	ids, err := f.mr.List("service:test|widgets|owner_id=7")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)
	assert.True(t, f.mr.Exists("service:test|widgets|widget_id=2"))

	require.NoError(t, f.s.Insert(ctx, &widget{OwnerID: 8, Name: "three"}))
	assert.False(t, f.mr.Exists("service:test|widgets|owner_id=8"), "an uncached list is left for the next select")
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.mr.RPush("service:test|widgets|owner_id=7", "1", "2")
	require.NoError(t, err)

	f.mock.ExpectQuery(`UPDATE widgets SET name = \$1 WHERE widget_id = \$2`).
		WithArgs("renamed", int64(1)).
		WillReturnRows(widgetRows(widget{1, 7, "renamed"}))
	w := &widget{WidgetID: 1, OwnerID: 7, Name: "renamed"}
	require.NoError(t, f.s.Update(ctx, w))

	cached, err := f.mr.Get("service:test|widgets|widget_id=1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"widget_id":1,"owner_id":7,"name":"renamed"}`, cached)

	f.mock.ExpectQuery(`DELETE FROM widgets WHERE widget_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(widgetRows(widget{1, 7, "renamed"}))
	require.NoError(t, f.s.Delete(ctx, &widget{WidgetID: 1}))

	assert.False(t, f.mr.Exists("service:test|widgets|widget_id=1"))
	ids, err := f.mr.List("service:test|widgets|owner_id=7")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids)
}

func TestTransactionDefersCacheUntilCommit(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`UPDATE widgets`).WillReturnRows(widgetRows(widget{1, 7, "in tx"}))
	f.mock.ExpectCommit()

	tx, err := f.s.TXBegin(ctx)
	require.NoError(t, err)
	defer tx.TXRollback()

	require.NoError(t, tx.TXUpdate(ctx, &widget{WidgetID: 1, OwnerID: 7, Name: "in tx"}))
	assert.False(t, f.mr.Exists("service:test|widgets|widget_id=1"))

	require.NoError(t, tx.TXEnd(ctx))
	assert.True(t, f.mr.Exists("service:test|widgets|widget_id=1"))
	assert.NoError(t, tx.TXRollback(), "rollback after commit is a no-op")
}

func TestTransactionRollbackLeavesCache(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`INSERT INTO widgets`).WillReturnRows(widgetRows(widget{4, 7, "four"}))
	f.mock.ExpectRollback()

	tx, err := f.s.TXBegin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.TXInsert(ctx, &widget{OwnerID: 7, Name: "four"}))
	require.NoError(t, tx.TXRollback())

	assert.False(t, f.mr.Exists("service:test|widgets|widget_id=4"))
}

func TestDeleteQueryKey(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.mr.RPush("service:test|widgets|owner_id=7", "1")
	require.NoError(t, err)

	require.NoError(t, f.s.DeleteQueryKey(ctx, &widget{OwnerID: 7}, widgetsByOwner))
	assert.False(t, f.mr.Exists("service:test|widgets|owner_id=7"))

	assert.NoError(t, f.s.DeleteQueryKey(ctx, &widget{}, widgetsUncached))
	assert.ErrorIs(t, f.s.DeleteQueryKey(ctx, &widget{}, "Nope"), errUnknownQuery)
}

func TestClearOnlyTouchesServiceKeys(t *testing.T) {
	f := newFixture(t, false)

	require.NoError(t, f.mr.Set("service:test|widgets|widget_id=1", "{}"))
	require.NoError(t, f.mr.Set("service:other|widgets|widget_id=1", "{}"))
	require.NoError(t, f.mr.Set("session:abc", "{}"))

	require.NoError(t, f.s.Clear(context.Background()))
	assert.Equal(t, []string{"service:other|widgets|widget_id=1", "session:abc"}, f.mr.Keys())
}

func TestVerifyExplainsEveryQuery(t *testing.T) {
	f := newFixture(t, false)

	for range widgetTable().Queries {
		f.mock.ExpectQuery(`EXPLAIN SELECT`).WillReturnRows(sqlmock.NewRows([]string{"QUERY PLAN"}).AddRow("Seq Scan"))
	}
	assert.NoError(t, f.s.Verify(context.Background()))
}

func TestUnknownStruct(t *testing.T) {
	f := newFixture(t, false)

	type gadget struct {
		GadgetID int64 `json:"gadget_id"`
	}
	err := f.s.Insert(context.Background(), &gadget{})
	assert.ErrorIs(t, err, errUnknownTable)

	err = f.s.Insert(context.Background(), widget{})
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	conn, _, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	db := sqlx.NewDb(conn, "postgres")

	tests := []struct {
		name   string
		mutate func(t *Table)
		want   string
	}{
		{"missing action", func(t *Table) { t.Queries[0].SelectAction = CacheDefault }, "must set SelectAction"},
		{"key field", func(t *Table) { t.Queries[0].CacheKey = "nope=%v" }, "is not a field"},
		{"mixed structures", func(t *Table) { t.Queries[1].UpdateAction = CacheSet }, "same datastructure"},
		{"list without primary", func(t *Table) { t.Queries[1].CachePrimaryQueryStored = "" }, "CachePrimaryQueryStored must be set"},
		{"returning", func(t *Table) { t.InsertQuery = "INSERT INTO widgets DEFAULT VALUES" }, "returning *"},
		{"primary query", func(t *Table) { t.PrimaryQueryName = widgetsUncached + "x" }, "is not one of its queries"},
		{"caches without key", func(t *Table) { t.Queries[0].CacheKey = "" }, "has no CacheKey"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := widgetTable()
			tt.mutate(table)
			_, err := New(&Config{ReadOnlyDbConn: db, WriteOnlyDbConn: db, Tables: []*Table{table}, ServiceName: "test"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
