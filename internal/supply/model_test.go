package supply

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSite_Valid(t *testing.T) {
	tests := []struct {
		name string
		site Site
		want bool
	}{
		{"valid", Site{Name: "Depot", Lat: -33.8, Lon: 151.2}, true},
		{"nameless", Site{Lat: -33.8, Lon: 151.2}, false},
		{"nan latitude", Site{Name: "Depot", Lat: math.NaN(), Lon: 151.2}, false},
		{"latitude out of range", Site{Name: "Depot", Lat: 95, Lon: 151.2}, false},
		{"longitude out of range", Site{Name: "Depot", Lat: -33.8, Lon: 200}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.site.Valid())
		})
	}
}

func TestStore_ReplaceDropsInvalidSites(t *testing.T) {
	store := NewStore()
	kept := store.Replace([]Site{
		{ID: "a", Name: "Good", Lat: -33.8, Lon: 151.2},
		{ID: "b", Name: "Bad", Lat: math.Inf(1), Lon: 151.2},
		{ID: "c", Name: "", Lat: -33.8, Lon: 151.2},
	}, "test")

	assert.Equal(t, 1, kept)
	assert.Len(t, store.Sites(), 1)
	assert.Equal(t, "Good", store.Sites()[0].Name)
	assert.Equal(t, "test", store.Origin())
}
