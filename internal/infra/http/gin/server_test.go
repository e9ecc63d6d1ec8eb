package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	availabilityapp "homio/internal/app/handlers/availability"
	bookingapp "homio/internal/app/handlers/booking"
	listingapp "homio/internal/app/handlers/listings"
	"homio/internal/app/queries"
	authsvc "homio/internal/app/services/auth"
	domainauth "homio/internal/domain/auth"
	"homio/internal/domain/shared/fault"
	domainuser "homio/internal/domain/user"
	"homio/internal/infra/config"
	"homio/internal/infra/obs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCommands struct {
	got    commands.Command
	result any
	err    error
}

func (f *fakeCommands) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	f.got = cmd
	return f.result, f.err
}

type fakeQueries struct {
	got    queries.Query
	result any
	err    error
}

func (f *fakeQueries) Ask(ctx context.Context, q queries.Query) (any, error) {
	f.got = q
	return f.result, f.err
}

type fakeResolver map[string]*domainuser.User

func (r fakeResolver) ResolveToken(ctx context.Context, token string) (*authsvc.ResolveResult, error) {
	user, ok := r[token]
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	return &authsvc.ResolveResult{User: user}, nil
}

var testUsers = fakeResolver{
	"guest-token": {ID: "g1", Email: "guest@homio.test", Name: "Guest", Role: domainuser.RoleUser},
	"host-token":  {ID: "h1", Email: "host@homio.test", Name: "Host", Role: domainuser.RoleHost},
}

type testServer struct {
	router   *gin.Engine
	commands *fakeCommands
	queries  *fakeQueries
}

func newTestServer() *testServer {
	cmds := &fakeCommands{}
	qs := &fakeQueries{}
	router := NewRouter(config.Config{}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Listing:        ListingHandler{Queries: qs},
		Booking:        BookingHandler{Commands: cmds},
		Reviews:        ReviewsHandler{Commands: cmds, Queries: qs},
		HostListing:    HostListingHandler{Commands: cmds},
		Dashboard:      DashboardHandler{Commands: cmds, Queries: qs},
		AuthMiddleware: AuthMiddleware{Resolver: testUsers}.Handle,
	})
	return &testServer{router: router, commands: cmds, queries: qs}
}

func (s *testServer) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestStatusForFaultKinds(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fault.New(fault.ErrValidation, "bad"), http.StatusBadRequest},
		{fault.New(fault.ErrUnauthenticated, "who"), http.StatusUnauthorized},
		{fault.New(fault.ErrForbidden, "no"), http.StatusForbidden},
		{fault.New(fault.ErrNotFound, "gone"), http.StatusNotFound},
		{fault.New(fault.ErrConflict, "taken"), http.StatusConflict},
		{fault.Wrap(fault.ErrUpstream, errors.New("timeout")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestCreateBookingRequiresUserRole(t *testing.T) {
	s := newTestServer()
	body := gin.H{"start_date": "2025-01-11", "end_date": "2025-01-13"}

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/listings/l1/bookings", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/listings/l1/bookings", "stale", body).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/listings/l1/bookings", "host-token", body).Code)
	assert.Nil(t, s.commands.got)
}

func TestCreateBookingDispatchesCommand(t *testing.T) {
	s := newTestServer()
	s.commands.result = &dto.PaymentSession{BookingID: "b1", OrderID: "order_1", AmountMinor: 20000, Currency: "INR"}

	rec := s.do(http.MethodPost, "/api/v1/listings/l1/bookings", "guest-token",
		gin.H{"start_date": "2025-01-11T00:00:00+05:30", "end_date": "2025-01-13T00:00:00Z"},
		"Idempotency-Key", "req-1")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cmd, ok := s.commands.got.(bookingapp.CreateBookingCommand)
	require.True(t, ok)
	assert.Equal(t, "l1", cmd.ListingID)
	assert.Equal(t, "g1", cmd.GuestID)
	assert.Equal(t, "req-1", cmd.IdempotencyKeyV)
	assert.Equal(t, time.Date(2025, 1, 11, 12, 0, 0, 0, time.UTC), cmd.StartDate)
	assert.Equal(t, time.Date(2025, 1, 13, 12, 0, 0, 0, time.UTC), cmd.EndDate)

	var session dto.PaymentSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "order_1", session.OrderID)
}

func TestCreateBookingRejectsMalformedDates(t *testing.T) {
	s := newTestServer()
	rec := s.do(http.MethodPost, "/api/v1/listings/l1/bookings", "guest-token", gin.H{"start_date": "11/01/2025", "end_date": "2025-01-13"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, s.commands.got)
}

func TestErrorsAreMappedToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fault.New(fault.ErrConflict, "booking: dates unavailable"), http.StatusConflict},
		{fault.New(fault.ErrNotFound, "listing not found"), http.StatusNotFound},
		{fault.Wrap(fault.ErrUpstream, errors.New("razorpay down")), http.StatusBadGateway},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		s := newTestServer()
		s.commands.err = tc.err
		rec := s.do(http.MethodPost, "/api/v1/bookings/b1/cancel", "guest-token", nil)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
		if tc.want == http.StatusInternalServerError {
			assert.NotContains(t, rec.Body.String(), "disk on fire")
		}
	}
}

func TestVerifyPaymentMapsCallbackFields(t *testing.T) {
	s := newTestServer()
	s.commands.result = dto.PaymentResult{BookingID: "b1", Verified: false, Status: "cancelled", PaymentStatus: "failed"}

	rec := s.do(http.MethodPost, "/api/v1/bookings/verify-payment", "guest-token", gin.H{
		"booking_id":          "b1",
		"razorpay_order_id":   "order_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "deadbeef",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	cmd := s.commands.got.(bookingapp.VerifyPaymentCommand)
	assert.Equal(t, bookingapp.VerifyPaymentCommand{BookingID: "b1", GuestID: "g1", OrderID: "order_1", PaymentID: "pay_1", Signature: "deadbeef"}, cmd)
	assert.Contains(t, rec.Body.String(), `"payment_status":"failed"`)
}

func TestSearchParsesQuery(t *testing.T) {
	s := newTestServer()
	s.queries.result = dto.ListingCollection{Items: []dto.Listing{}, Total: 0}

	rec := s.do(http.MethodGet, "/api/v1/listings?location=goa&min_price=100&max_price=300&min_rating=4.5&amenities=wifi,%20pool&sort=price_asc&limit=10&offset=20", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, listingapp.SearchListingsQuery{
		Location:  "goa",
		MinPrice:  100,
		MaxPrice:  300,
		MinRating: 4.5,
		Amenities: []string{"wifi", "pool"},
		Sort:      "price_asc",
		Limit:     10,
		Offset:    20,
	}, s.queries.got)
}

func TestAvailabilityRequiresDates(t *testing.T) {
	s := newTestServer()
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/listings/l1/availability?start=2025-01-11", "", nil).Code)

	s.queries.result = dto.Availability{ListingID: "l1", Available: true, Nights: 2}
	rec := s.do(http.MethodGet, "/api/v1/listings/l1/availability?start=2025-01-11&end=2025-01-13", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAvailabilityKeepsCallerCalendarDay(t *testing.T) {
	s := newTestServer()
	s.queries.result = dto.Availability{ListingID: "l1", Available: true, Nights: 2}

	rec := s.do(http.MethodGet, "/api/v1/listings/l1/availability?start=2025-01-10T00:00:00%2B05:30&end=2025-01-12", "", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	q, ok := s.queries.got.(availabilityapp.CheckAvailabilityQuery)
	require.True(t, ok)
	assert.Equal(t, 10, q.Start.Day())
	assert.Equal(t, time.Date(2025, 1, 12, 12, 0, 0, 0, time.UTC), q.End)
}

func TestHostListingAcceptsCommaAmenities(t *testing.T) {
	s := newTestServer()
	s.commands.result = dto.Listing{ID: "l1"}

	rec := s.do(http.MethodPost, "/api/v1/host/listings", "host-token", gin.H{
		"title": "Beach hut", "description": "Sea view", "price": 120,
		"location": "Goa", "country": "India", "amenities": "wifi, pool",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cmd := s.commands.got.(listingapp.CreateListingCommand)
	assert.Equal(t, "h1", cmd.HostID)
	assert.Equal(t, []string{"wifi", "pool"}, cmd.Fields.Amenities)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/host/listings", "guest-token", gin.H{"title": "x"}).Code)
}

func TestUploadImageSniffsContentType(t *testing.T) {
	s := newTestServer()
	s.commands.result = dto.Listing{ID: "l1", ImageURL: "https://cdn.homio.test/l1.png"}

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, _ = part.Write(png)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/host/listings/l1/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer host-token")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cmd := s.commands.got.(listingapp.UploadListingImageCommand)
	assert.Equal(t, "image/png", cmd.ContentType)
	assert.Equal(t, "h1", cmd.HostID)
}

func TestUploadImageRequiresFile(t *testing.T) {
	s := newTestServer()
	rec := s.do(http.MethodPost, "/api/v1/host/listings/l1/image", "host-token", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardRoles(t *testing.T) {
	s := newTestServer()
	s.queries.result = dto.HostDashboard{}
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/host/dashboard", "host-token", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/host/dashboard", "guest-token", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/me/dashboard", "host-token", nil).Code)
}

func TestFlexibleDateAndCSV(t *testing.T) {
	var d flexibleDate
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-01"`), &d))
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), d.Time)
	require.NoError(t, json.Unmarshal([]byte(`"2025-01-10T00:00:00+05:30"`), &d))
	assert.Equal(t, time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC), d.Time)
	require.NoError(t, json.Unmarshal([]byte(`"2025-01-10T23:30:00-08:00"`), &d))
	assert.Equal(t, time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC), d.Time)
	assert.Error(t, json.Unmarshal([]byte(`"tomorrow"`), &d))

	var l csvList
	require.NoError(t, json.Unmarshal([]byte(`["wifi","pool"]`), &l))
	assert.Equal(t, csvList{"wifi", "pool"}, l)
	require.NoError(t, json.Unmarshal([]byte(`" wifi ,, ac "`), &l))
	assert.Equal(t, csvList{"wifi", "ac"}, l)
}

func TestExtractBearerToken(t *testing.T) {
	for header, want := range map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "abc",
		"Basic abc":   "",
		"":            "",
	} {
		assert.Equal(t, want, extractBearerToken(header), fmt.Sprintf("%q", header))
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	router := NewRouter(config.Config{CORSOrigins: []string{"http://localhost:5173"}}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/listings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
