package validation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homio/internal/app/handlers/booking"
	"homio/internal/app/handlers/reviews"
	"homio/internal/domain/shared/fault"
)

func TestValidateAcceptsCompleteCommand(t *testing.T) {
	v := New()
	cmd := booking.CreateBookingCommand{
		ListingID: "l1",
		GuestID:   "u1",
		StartDate: time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, v.Validate(context.Background(), cmd))
	assert.NoError(t, v.Validate(context.Background(), &cmd))
}

func TestValidateReportsEveryField(t *testing.T) {
	v := New()
	err := v.Validate(context.Background(), reviews.SubmitReviewCommand{ListingID: "l1", Rating: 6})
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrValidation)
	assert.Contains(t, err.Error(), "AuthorID is required")
	assert.Contains(t, err.Error(), "Rating must be at most 5")
	assert.Contains(t, err.Error(), "Comment is required")
}

func TestValidateMissingDates(t *testing.T) {
	err := New().Validate(context.Background(), booking.CreateBookingCommand{ListingID: "l1", GuestID: "u1"})
	assert.ErrorIs(t, err, fault.ErrValidation)
	assert.Contains(t, err.Error(), "StartDate is required")
}

func TestValidateIgnoresNonStructs(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(context.Background(), nil))
	assert.NoError(t, v.Validate(context.Background(), "text"))
}
