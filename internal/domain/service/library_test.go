package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Badsnus/qrstudio/internal/adapters/database/memory"
	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"github.com/Badsnus/qrstudio/pkg/crop"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLibrary() *LibraryService {
	return NewLibraryService(memory.NewDesignStorage(), nil)
}

func TestLibrarySaveAutoNames(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary()

	first, err := lib.Save(ctx, &entity.Design{Config: entity.DefaultConfig})
	require.NoError(t, err)
	assert.Equal(t, "Design 1", first.Name)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.Timestamp.IsZero())

	second, err := lib.Save(ctx, &entity.Design{Name: "  Flyer  "})
	require.NoError(t, err)
	assert.Equal(t, "Flyer", second.Name)

	third, err := lib.Save(ctx, &entity.Design{})
	require.NoError(t, err)
	assert.Equal(t, "Design 3", third.Name)

	_, err = lib.Save(ctx, &entity.Design{Name: strings.Repeat("x", 100)})
	assert.ErrorIs(t, err, errorz.ErrInvalidName)
}

func TestLibraryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, c := range []struct {
		name   string
		offset time.Duration
	}{
		{"old", 0},
		{"new", 2 * time.Hour},
		{"mid", time.Hour},
	} {
		_, err := lib.Save(ctx, &entity.Design{Name: c.name, Timestamp: base.Add(c.offset)})
		require.NoError(t, err)
	}

	designs, err := lib.List(ctx)
	require.NoError(t, err)
	require.Len(t, designs, 3)
	assert.Equal(t, "new", designs[0].Name)
	assert.Equal(t, "mid", designs[1].Name)
	assert.Equal(t, "old", designs[2].Name)
}

func TestLibraryDuplicateNames(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary()
	original, err := lib.Save(ctx, &entity.Design{Name: "Card", Logo: []byte{1}})
	require.NoError(t, err)

	c1, err := lib.Duplicate(ctx, original.ID)
	require.NoError(t, err)
	c2, err := lib.Duplicate(ctx, original.ID)
	require.NoError(t, err)
	c3, err := lib.Duplicate(ctx, original.ID)
	require.NoError(t, err)

	assert.Equal(t, "Card (copy)", c1.Name)
	assert.Equal(t, "Card (copy 2)", c2.Name)
	assert.Equal(t, "Card (copy 3)", c3.Name)
	assert.NotEqual(t, original.ID, c1.ID)
	assert.Equal(t, original.Logo, c1.Logo)

	_, err = lib.Duplicate(ctx, "missing")
	assert.ErrorIs(t, err, errorz.ErrDesignNotFound)
}

func TestLibraryUpdateRenameDelete(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary()
	d, err := lib.Save(ctx, &entity.Design{Name: "Card"})
	require.NoError(t, err)

	cfg := entity.DefaultConfig
	cfg.Content = "https://example.org"
	updated, err := lib.Update(ctx, d.ID, &entity.Design{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, d.ID, updated.ID)
	assert.Equal(t, "Card", updated.Name)
	assert.Equal(t, "https://example.org", updated.Config.Content)

	renamed, err := lib.Rename(ctx, d.ID, "Business card")
	require.NoError(t, err)
	assert.Equal(t, "Business card", renamed.Name)

	_, err = lib.Rename(ctx, d.ID, " ")
	assert.ErrorIs(t, err, errorz.ErrInvalidName)

	require.NoError(t, lib.Delete(ctx, d.ID))
	_, err = lib.Get(ctx, d.ID)
	assert.ErrorIs(t, err, errorz.ErrDesignNotFound)
	assert.ErrorIs(t, lib.Delete(ctx, d.ID), errorz.ErrDesignNotFound)
}

func TestLibraryExportImport(t *testing.T) {
	ctx := context.Background()
	src := newTestLibrary()
	state := crop.State{Scale: 2.3, OffsetX: 15, OffsetY: -7}
	saved, err := src.Save(ctx, &entity.Design{
		Name:        "Menu",
		Config:      entity.DefaultConfig,
		SourceImage: []byte{1, 2, 3},
		Crop:        &state,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, &buf))

	// Importing into the same library gives the colliding record a fresh id.
	n, err := src.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	designs, err := src.List(ctx)
	require.NoError(t, err)
	require.Len(t, designs, 2)
	assert.NotEqual(t, designs[0].ID, designs[1].ID)
	for _, d := range designs {
		assert.Equal(t, "Menu", d.Name)
		require.NotNil(t, d.Crop)
		assert.Equal(t, state, *d.Crop)
		assert.Equal(t, []byte{1, 2, 3}, d.SourceImage)
	}

	dst := newTestLibrary()
	_, err = dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	got, err := dst.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Menu", got.Name)
}

func TestLibraryMalformedImportLeavesLibraryUnchanged(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary()
	_, err := lib.Save(ctx, &entity.Design{Name: "Keep"})
	require.NoError(t, err)

	for _, doc := range []string{
		`{"not":"an array"}`,
		`[{"name":"a"},`,
		`[{"name":"ok"},{"name":"bad","config":{"dotStyle":"stars"}}]`,
	} {
		_, err = lib.Import(ctx, strings.NewReader(doc))
		assert.ErrorIs(t, err, errorz.ErrMalformedLibrary, doc)
	}

	designs, err := lib.List(ctx)
	require.NoError(t, err)
	require.Len(t, designs, 1)
	assert.Equal(t, "Keep", designs[0].Name)
}

func TestLibraryExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestLibrary().Export(context.Background(), &buf))
	assert.Equal(t, "[]\n", buf.String())
}

func TestLibraryImportCanonicalizesLevel(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary()

	n, err := lib.Import(ctx, strings.NewReader(`[{"name":"Lower","config":{"errorCorrection":"h"}}]`))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	designs, err := lib.List(ctx)
	require.NoError(t, err)
	require.Len(t, designs, 1)
	assert.Equal(t, qr.LevelH, designs[0].Config.ErrorCorrection)
}
