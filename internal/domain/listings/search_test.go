package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocationPatterns(t *testing.T) {
	assert.Nil(t, LocationPatterns("  "))
	assert.Equal(t, []string{"goa"}, LocationPatterns("Goa"))
	assert.Equal(t, []string{"india", "indi", "ndia"}, LocationPatterns(" India "))
}

func TestSearchParamsNormalized(t *testing.T) {
	p := SearchParams{Location: "  Paris ", MinPrice: -5, Sort: "bogus", Limit: 1000, Offset: -1, Amenities: []string{"wifi,pool"}}.Normalized()
	assert.Equal(t, "paris", p.Location)
	assert.Zero(t, p.MinPrice)
	assert.Equal(t, SortByNewest, p.Sort)
	assert.Equal(t, maxSearchLimit, p.Limit)
	assert.Zero(t, p.Offset)
	assert.Equal(t, []string{"wifi", "pool"}, p.Amenities)

	assert.Equal(t, defaultSearchLimit, SearchParams{}.Normalized().Limit)
}

func TestMatches(t *testing.T) {
	l := &Listing{Title: "Beach house", Location: "Calangute", Country: "India", NightlyPrice: 120, RatingAverage: 4.2, Amenities: []string{"wifi", "pool"}}

	cases := []struct {
		name   string
		params SearchParams
		want   bool
	}{
		{"no filters", SearchParams{}, true},
		{"fuzzy country", SearchParams{Location: "ndiaa"}, true},
		{"title", SearchParams{Location: "beach"}, true},
		{"short exact", SearchParams{Location: "cal"}, true},
		{"miss", SearchParams{Location: "paris"}, false},
		{"min price", SearchParams{MinPrice: 121}, false},
		{"max price", SearchParams{MaxPrice: 120}, true},
		{"max price excluded", SearchParams{MaxPrice: 100}, false},
		{"rating", SearchParams{MinRating: 4.5}, false},
		{"amenities subset", SearchParams{Amenities: []string{"pool"}}, true},
		{"amenities missing", SearchParams{Amenities: []string{"pool", "gym"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.params.Normalized().Matches(l))
		})
	}
}

func TestSortListings(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &Listing{ID: "a", NightlyPrice: 300, RatingAverage: 4, RatingCount: 1, CreatedAt: base}
	b := &Listing{ID: "b", NightlyPrice: 100, RatingAverage: 4, RatingCount: 9, CreatedAt: base.Add(time.Hour)}
	c := &Listing{ID: "c", NightlyPrice: 200, RatingAverage: 5, RatingCount: 1, CreatedAt: base.Add(2 * time.Hour)}

	ids := func(items []*Listing) []ListingID {
		out := make([]ListingID, len(items))
		for i, it := range items {
			out[i] = it.ID
		}
		return out
	}

	items := []*Listing{a, b, c}
	SortListings(items, SortByPriceAsc)
	assert.Equal(t, []ListingID{"b", "c", "a"}, ids(items))
	SortListings(items, SortByPriceDesc)
	assert.Equal(t, []ListingID{"a", "c", "b"}, ids(items))
	SortListings(items, SortByRating)
	assert.Equal(t, []ListingID{"c", "b", "a"}, ids(items))
	SortListings(items, SortByNewest)
	assert.Equal(t, []ListingID{"c", "b", "a"}, ids(items))
}
