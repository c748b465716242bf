package service

import (
	"context"
	"encoding/json"
	"gradebook_backend/internal/grading"
	"gradebook_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

func newTestGateway(store *flakyStore) *SyncGateway {
	g := NewSyncGateway(store, fastSyncOptions())
	g.now = func() time.Time { return testNow }
	return g
}

func TestLoadCreatesDefaultDocument(t *testing.T) {
	store := newFlakyStore()
	g := newTestGateway(store)

	doc, rep, err := g.Load(context.Background(), "KRE")
	require.NoError(t, err)
	assert.True(t, rep.Changed)
	assert.Empty(t, doc.Groups)
	require.Len(t, doc.AssessmentTemplates, 1)
	assert.Equal(t, grading.DefaultTemplateID, doc.AssessmentTemplates[0].ID)
	assert.Equal(t, "2026/27", doc.Settings.CurrentSchoolYear)

	// 默认文档立即写回
	require.NotNil(t, store.body("KRE"))
	again, rep, err := g.Load(context.Background(), "KRE")
	require.NoError(t, err)
	assert.False(t, rep.Changed)
	assert.Equal(t, doc, again)
}

func TestLoadCorruptDocument(t *testing.T) {
	store := newFlakyStore()
	require.NoError(t, store.MemoryDocumentStore.Upsert(context.Background(), "KRE", []byte(`[1, 2, 3]`)))

	_, _, err := newTestGateway(store).Load(context.Background(), "KRE")
	assert.ErrorIs(t, err, util.ErrCorruptDocument)
	assert.Equal(t, int32(0), store.upserts.Load(), "corrupt documents are never overwritten")
}

func TestLoadRetriesThenFails(t *testing.T) {
	store := newFlakyStore()
	store.failGets.Store(true)

	_, _, err := newTestGateway(store).Load(context.Background(), "KRE")
	assert.ErrorIs(t, err, util.ErrStoreUnavailable)
	assert.ErrorIs(t, err, errBackendDown)
	assert.Equal(t, int32(2), store.gets.Load())
}

func TestSaveFailureKeepsPreviousVersion(t *testing.T) {
	store := newFlakyStore()
	g := newTestGateway(store)
	ctx := context.Background()

	doc := grading.NewDocument(testNow)
	require.NoError(t, g.Save(ctx, "KRE", doc))
	before := store.body("KRE")

	store.failUpserts.Store(true)
	doc.Settings.PreferredSorting = util.SortByStatus
	err := g.Save(ctx, "KRE", doc)

	var sue *util.StoreUnavailableError
	require.ErrorAs(t, err, &sue)
	assert.Equal(t, "save", sue.Op)
	assert.Equal(t, "KRE", sue.Tenant)
	assert.Equal(t, before, store.body("KRE"))
}

func TestMigrateAll(t *testing.T) {
	store := newFlakyStore()
	g := newTestGateway(store)
	ctx := context.Background()

	current, err := json.Marshal(grading.NewDocument(testNow))
	require.NoError(t, err)
	require.NoError(t, store.MemoryDocumentStore.Upsert(ctx, "MUE", current))
	require.NoError(t, store.MemoryDocumentStore.Upsert(ctx, "KRE", []byte(`{"students": [{"id": "s1", "name": "Alice", "theme": "Projekt A"}]}`)))
	require.NoError(t, store.MemoryDocumentStore.Upsert(ctx, "SCH", []byte(`"broken"`)))

	results, err := g.MigrateAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "KRE", results[0].Tenant)
	assert.True(t, results[0].Written)
	assert.True(t, results[0].Report.Upgraded)

	assert.Equal(t, "MUE", results[1].Tenant)
	assert.False(t, results[1].Written)
	assert.Empty(t, results[1].Error)

	assert.Equal(t, "SCH", results[2].Tenant)
	assert.NotEmpty(t, results[2].Error)
	assert.Equal(t, []byte(`"broken"`), store.body("SCH"))

	// 第二次运行不再写入
	results, err = g.MigrateAll(ctx)
	require.NoError(t, err)
	assert.False(t, results[0].Written)
	assert.Equal(t, current, store.body("MUE"))
}
