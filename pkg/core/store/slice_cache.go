// Package store caches assembled filing slices so re-running a merge over a
// filer's history does not re-assemble unchanged vintages. Hybrid vault:
// Postgres is the primary when a pool is configured, with a file-system
// fallback for local runs.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"statement_weaver/pkg/models"
)

// SliceCache stores assembled FilingSlices keyed by their source ID.
type SliceCache struct {
	Log     zerolog.Logger
	pool    *pgxpool.Pool
	fileDir string
}

// NewSliceCache creates a cache. With a nil pool it falls back to JSON files
// under dir; with both nil/empty it defaults to a local .cache directory.
func NewSliceCache(pool *pgxpool.Pool, dir string) *SliceCache {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "slices")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			dir = "" // degrade to no-op file cache rather than failing the run
		}
	}
	return &SliceCache{Log: zerolog.Nop(), pool: pool, fileDir: dir}
}

// Entry is one cached slice plus bookkeeping. Warnings ride along so a cache
// hit reproduces the original assembly's diagnostics.
type Entry struct {
	ID       string              `json:"id"`
	SourceID string              `json:"source_id"`
	Form     string              `json:"form"`
	Slice    *models.FilingSlice `json:"slice"`
	Warnings []models.Warning    `json:"warnings,omitempty"`
	StoredAt time.Time           `json:"stored_at"`
}

// Get retrieves a cached slice and its assembly warnings by source ID;
// (nil, nil, nil) on a miss.
func (c *SliceCache) Get(ctx context.Context, sourceID string) (*models.FilingSlice, []models.Warning, error) {
	if c.pool != nil {
		query := `
			SELECT slice, warnings
			FROM statement_slices
			WHERE source_id = $1
			ORDER BY stored_at DESC
			LIMIT 1
		`
		var data, wdata []byte
		err := c.pool.QueryRow(ctx, query, sourceID).Scan(&data, &wdata)
		if err != nil {
			// No-rows and transient errors both read as a miss; assembly is
			// always a valid fallback.
			c.Log.Debug().Str("source", sourceID).Err(err).Msg("slice cache db miss")
			return nil, nil, nil
		}
		var slice models.FilingSlice
		if err := json.Unmarshal(data, &slice); err != nil {
			return nil, nil, fmt.Errorf("unmarshal cached slice %s: %w", sourceID, err)
		}
		var warns []models.Warning
		if len(wdata) > 0 {
			if err := json.Unmarshal(wdata, &warns); err != nil {
				return nil, nil, fmt.Errorf("unmarshal cached warnings %s: %w", sourceID, err)
			}
		}
		return &slice, warns, nil
	}

	if c.fileDir == "" {
		return nil, nil, nil
	}
	data, err := os.ReadFile(c.path(sourceID))
	if err != nil {
		return nil, nil, nil
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, nil, fmt.Errorf("unmarshal cached slice file %s: %w", sourceID, err)
	}
	return entry.Slice, entry.Warnings, nil
}

// Put stores an assembled slice together with the warnings its assembly
// produced.
func (c *SliceCache) Put(ctx context.Context, slice *models.FilingSlice, warnings []models.Warning) error {
	entry := Entry{
		ID:       uuid.NewString(),
		SourceID: slice.Source.ID,
		Form:     slice.Source.Form,
		Slice:    slice,
		Warnings: warnings,
		StoredAt: time.Now().UTC(),
	}

	if c.pool != nil {
		data, err := json.Marshal(slice)
		if err != nil {
			return fmt.Errorf("marshal slice %s: %w", slice.Source.ID, err)
		}
		wdata, err := json.Marshal(entry.Warnings)
		if err != nil {
			return fmt.Errorf("marshal warnings %s: %w", slice.Source.ID, err)
		}
		query := `
			INSERT INTO statement_slices (id, source_id, form, slice, warnings, stored_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (source_id) DO UPDATE
			SET slice = EXCLUDED.slice, warnings = EXCLUDED.warnings, stored_at = EXCLUDED.stored_at
		`
		if _, err := c.pool.Exec(ctx, query, entry.ID, entry.SourceID, entry.Form, data, wdata, entry.StoredAt); err != nil {
			return fmt.Errorf("store slice %s: %w", slice.Source.ID, err)
		}
		return nil
	}

	if c.fileDir == "" {
		return nil
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal slice entry %s: %w", slice.Source.ID, err)
	}
	if err := os.WriteFile(c.path(slice.Source.ID), data, 0o644); err != nil {
		return fmt.Errorf("write slice cache file: %w", err)
	}
	return nil
}

func (c *SliceCache) path(sourceID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, sourceID)
	return filepath.Join(c.fileDir, safe+".json")
}
