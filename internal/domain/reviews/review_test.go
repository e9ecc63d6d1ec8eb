package reviews

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homio/internal/domain/shared/fault"
)

func TestSubmit(t *testing.T) {
	r, err := Submit(SubmitParams{ID: "r1", ListingID: "l1", AuthorID: "u1", Rating: 4, Comment: "  Lovely stay  ", CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, "Lovely stay", r.Comment)
	require.Len(t, r.PendingEvents(), 1)
	assert.Equal(t, "review.submitted", r.PendingEvents()[0].EventName())
}

func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name   string
		params SubmitParams
		want   error
	}{
		{"rating low", SubmitParams{AuthorID: "u", Rating: 0, Comment: "great place"}, ErrInvalidRating},
		{"rating high", SubmitParams{AuthorID: "u", Rating: 6, Comment: "great place"}, ErrInvalidRating},
		{"comment short", SubmitParams{AuthorID: "u", Rating: 3, Comment: " ok  "}, ErrInvalidComment},
		{"comment long", SubmitParams{AuthorID: "u", Rating: 3, Comment: strings.Repeat("a", 501)}, ErrInvalidComment},
		{"author", SubmitParams{Rating: 3, Comment: "great place"}, ErrAuthorRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Submit(tc.params)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, fault.ErrValidation)
		})
	}
}

func TestAggregate(t *testing.T) {
	assert.Equal(t, Stats{}, Aggregate(nil))
	assert.Equal(t, Stats{Average: 4, Count: 3}, Aggregate([]int{5, 3, 4}))
	assert.Equal(t, Aggregate([]int{5, 4}), Aggregate([]int{5, 4}))
}
