package listings

import (
	"sort"
	"strings"
)

// CatalogSort defines a supported ordering.
type CatalogSort string

const (
	SortByPriceAsc  CatalogSort = "price_asc"
	SortByPriceDesc CatalogSort = "price_desc"
	SortByRating    CatalogSort = "rating_desc"
	SortByNewest    CatalogSort = "newest"

	defaultSearchLimit = 24
	maxSearchLimit     = 100

	// minFuzzyLen is the shortest consecutive run of characters that counts
	// as a location match.
	minFuzzyLen = 4
)

// SearchParams describe catalog filters and paging options.
// Zero values mean "no filter" for the numeric bounds.
type SearchParams struct {
	Location  string
	MinPrice  int64
	MaxPrice  int64
	MinRating float64
	Amenities []string
	Sort      CatalogSort
	Limit     int
	Offset    int
}

type SearchResult struct {
	Items []*Listing
	Total int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	normalized := p
	normalized.Location = strings.ToLower(strings.TrimSpace(normalized.Location))
	normalized.Amenities = NormalizeAmenities(normalized.Amenities)
	if normalized.MinPrice < 0 {
		normalized.MinPrice = 0
	}
	if normalized.MaxPrice < 0 {
		normalized.MaxPrice = 0
	}
	if normalized.MinRating < 0 {
		normalized.MinRating = 0
	}
	if normalized.Limit <= 0 {
		normalized.Limit = defaultSearchLimit
	}
	if normalized.Limit > maxSearchLimit {
		normalized.Limit = maxSearchLimit
	}
	if normalized.Offset < 0 {
		normalized.Offset = 0
	}
	switch normalized.Sort {
	case SortByPriceAsc, SortByPriceDesc, SortByRating, SortByNewest:
	default:
		normalized.Sort = SortByNewest
	}
	return normalized
}

// LocationPatterns expands a search term into the fragments that count as a
// hit. Terms shorter than four characters are matched as a whole; longer terms
// match on the full term or on any four character window, which covers every
// longer consecutive substring as well.
func LocationPatterns(term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	runes := []rune(term)
	if len(runes) < minFuzzyLen {
		return []string{term}
	}
	seen := map[string]struct{}{term: {}}
	patterns := []string{term}
	for i := 0; i+minFuzzyLen <= len(runes); i++ {
		window := string(runes[i : i+minFuzzyLen])
		if _, ok := seen[window]; ok {
			continue
		}
		seen[window] = struct{}{}
		patterns = append(patterns, window)
	}
	return patterns
}

// Matches reports whether l satisfies the filters of normalized params.
func (p SearchParams) Matches(l *Listing) bool {
	if l == nil {
		return false
	}
	if p.Location != "" && !matchesLocation(l, LocationPatterns(p.Location)) {
		return false
	}
	if p.MinPrice > 0 && l.NightlyPrice < p.MinPrice {
		return false
	}
	if p.MaxPrice > 0 && l.NightlyPrice > p.MaxPrice {
		return false
	}
	if p.MinRating > 0 && l.RatingAverage < p.MinRating {
		return false
	}
	return hasAllAmenities(l.Amenities, p.Amenities)
}

// SortListings orders items in place according to sort.
func SortListings(items []*Listing, order CatalogSort) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch order {
		case SortByPriceAsc:
			return a.NightlyPrice < b.NightlyPrice
		case SortByPriceDesc:
			return a.NightlyPrice > b.NightlyPrice
		case SortByRating:
			if a.RatingAverage != b.RatingAverage {
				return a.RatingAverage > b.RatingAverage
			}
			return a.RatingCount > b.RatingCount
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
}

func matchesLocation(l *Listing, patterns []string) bool {
	fields := []string{strings.ToLower(l.Location), strings.ToLower(l.Country), strings.ToLower(l.Title)}
	for _, pattern := range patterns {
		for _, field := range fields {
			if strings.Contains(field, pattern) {
				return true
			}
		}
	}
	return false
}

func hasAllAmenities(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, a := range have {
		set[a] = struct{}{}
	}
	for _, a := range want {
		if _, ok := set[a]; !ok {
			return false
		}
	}
	return true
}
