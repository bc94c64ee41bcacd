package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statement_weaver/pkg/models"
)

func sampleSlice(id string) *models.FilingSlice {
	p := models.Period{Instant: true, End: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)}
	return &models.FilingSlice{
		Source: models.SourceMeta{
			ID: id, Form: "10-K",
			FilingDate: time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC),
		},
		Tables: []*models.StatementTable{{
			Name:    "Consolidated Balance Sheets",
			Kind:    models.KindInstant,
			Periods: []models.Period{p},
			Rows: []*models.StatementRow{{
				Concept: "us-gaap:Assets", Label: "Total assets", Depth: 1,
				Cells: map[string]models.Cell{
					p.Key(): {Display: "900", Raw: decimal.NewFromInt(900), Numeric: true, Period: p},
				},
			}},
		}},
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cache := NewSliceCache(nil, dir)
	ctx := context.Background()

	miss, _, err := cache.Get(ctx, "0001628280-25-003063")
	require.NoError(t, err)
	assert.Nil(t, miss, "cold cache misses cleanly")

	slice := sampleSlice("0001628280-25-003063")
	require.NoError(t, cache.Put(ctx, slice, nil))

	got, _, err := cache.Get(ctx, "0001628280-25-003063")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, slice.Source.ID, got.Source.ID)
	require.Len(t, got.Tables, 1)
	require.Len(t, got.Tables[0].Rows, 1)

	p := slice.Tables[0].Periods[0]
	cell := got.Tables[0].Rows[0].Cells[p.Key()]
	assert.Equal(t, "900", cell.Raw.String())
	assert.Equal(t, "900", cell.Display)
}

func TestFileCacheKeepsAssemblyWarnings(t *testing.T) {
	dir := t.TempDir()
	cache := NewSliceCache(nil, dir)
	ctx := context.Background()

	warns := []models.Warning{{
		Kind:      models.WarnRoleSkipped,
		Statement: "Consolidated Balance Sheets",
		Message:   "role http://acme.test/role/Extra skipped: no root concepts",
	}}
	require.NoError(t, cache.Put(ctx, sampleSlice("acc-warn"), warns))

	got, gotWarns, err := cache.Get(ctx, "acc-warn")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, gotWarns, 1)
	assert.Equal(t, models.WarnRoleSkipped, gotWarns[0].Kind)
	assert.Equal(t, warns[0].Message, gotWarns[0].Message)
}

func TestFileCacheSanitizesSourceIDs(t *testing.T) {
	dir := t.TempDir()
	cache := NewSliceCache(nil, dir)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, sampleSlice("weird/id with:chars"), nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")
	assert.NotContains(t, entries[0].Name(), ":")

	got, _, err := cache.Get(ctx, "weird/id with:chars")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "weird/id with:chars", got.Source.ID)
}

func TestFileCacheCorruptEntryErrors(t *testing.T) {
	dir := t.TempDir()
	cache := NewSliceCache(nil, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-id.json"), []byte("{not json"), 0o644))

	_, _, err := cache.Get(context.Background(), "bad-id")
	assert.Error(t, err)
}

func TestCacheWithoutBackendIsNoOp(t *testing.T) {
	cache := &SliceCache{}
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, sampleSlice("acc-1"), nil))
	got, _, err := cache.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
