package memory

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"homio/internal/app/policies"
)

// PaymentGateway issues sequential fake orders. Set Err to simulate an outage.
type PaymentGateway struct {
	mu       sync.Mutex
	seq      int
	Err      error
	Requests []policies.OrderRequest
}

func NewPaymentGateway() *PaymentGateway {
	return &PaymentGateway{}
}

func (g *PaymentGateway) CreateOrder(ctx context.Context, req policies.OrderRequest) (policies.PaymentOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return policies.PaymentOrder{}, g.Err
	}
	g.seq++
	g.Requests = append(g.Requests, req)
	return policies.PaymentOrder{
		ID:          fmt.Sprintf("order_%d", g.seq),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Status:      "created",
	}, nil
}

// LastRequest returns the most recent order request.
func (g *PaymentGateway) LastRequest() (policies.OrderRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Requests) == 0 {
		return policies.OrderRequest{}, false
	}
	return g.Requests[len(g.Requests)-1], true
}

// ImageStore records uploads and returns a deterministic URL.
type ImageStore struct {
	mu      sync.Mutex
	BaseURL string
	Objects map[string]string
}

func NewImageStore(baseURL string) *ImageStore {
	return &ImageStore{BaseURL: baseURL, Objects: map[string]string{}}
}

func (s *ImageStore) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = contentType
	return strings.TrimRight(s.BaseURL, "/") + "/" + key, nil
}

var (
	_ policies.PaymentGateway = (*PaymentGateway)(nil)
	_ policies.ImageStore     = (*ImageStore)(nil)
)
