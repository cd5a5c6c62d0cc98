package supply

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	in := []Site{
		{ID: "s1", Name: "Northside Concrete", Categories: []string{"concrete"}, Lat: -33.80, Lon: 151.10},
		{ID: "s2", Name: "Harbour Quarry", Categories: []string{"aggregate", "sand"}, Lat: -33.85, Lon: 151.20},
		{ID: "s3", Name: "Bad Coords", Lat: math.NaN(), Lon: 151.30},
	}
	require.NoError(t, WriteSnapshot(ctx, path, in))

	src := &SQLiteSource{Path: path}
	out, err := src.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "s1", out[0].ID)
	assert.Equal(t, []string{"concrete"}, out[0].Categories)
	assert.Equal(t, []string{"aggregate", "sand"}, out[1].Categories)
	assert.InDelta(t, -33.85, out[1].Lat, 1e-9)
}

func TestSQLiteSnapshot_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	require.NoError(t, WriteSnapshot(ctx, path, []Site{
		{ID: "s1", Name: "Old Depot", Lat: -33.8, Lon: 151.2},
	}))
	require.NoError(t, WriteSnapshot(ctx, path, []Site{
		{ID: "s9", Name: "New Depot", Lat: -33.9, Lon: 151.3},
	}))

	out, err := (&SQLiteSource{Path: path}).Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "New Depot", out[0].Name)
}

func TestSQLiteSource_MissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	_, err := (&SQLiteSource{Path: path}).Load(context.Background())
	assert.Error(t, err)
}
