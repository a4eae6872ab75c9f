// Package services provides external service integrations and technical concerns like payments, caching and tokens
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/feirahub/commission-engine/config"
)

// Gateway payment statuses as reported by Asaas
const (
	GatewayPaymentStatusPending   = "PENDING"
	GatewayPaymentStatusReceived  = "RECEIVED"
	GatewayPaymentStatusConfirmed = "CONFIRMED"
	GatewayPaymentStatusOverdue   = "OVERDUE"
	GatewayPaymentStatusRefunded  = "REFUNDED"
)

var (
	ErrGatewayPaymentNotFound = errors.New("payment not found at gateway")
	ErrGatewayUnavailable     = errors.New("gateway request failed")
)

// GatewayPayment is the slice of the gateway's payment object the engine cares about
type GatewayPayment struct {
	ID          string  `json:"id"`
	Customer    string  `json:"customer"`
	Status      string  `json:"status"`
	Value       float64 `json:"value"`
	BillingType string  `json:"billingType"` // PIX, BOLETO, CREDIT_CARD
	DueDate     string  `json:"dueDate"`
}

// GatewayClient looks up payments at the external payment gateway
type GatewayClient interface {
	GetPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
}

// AsaasClient implements GatewayClient against the Asaas REST API
type AsaasClient struct {
	cfg    config.GatewayConfig
	client *http.Client
}

// NewAsaasClient creates a new Asaas gateway client. Lookups are bounded by
// the configured timeout; webhook processing must never hold a database
// transaction open while waiting on the gateway.
func NewAsaasClient(cfg config.GatewayConfig) GatewayClient {
	return &AsaasClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// GetPayment fetches a payment by id from the gateway
func (c *AsaasClient) GetPayment(ctx context.Context, paymentID string) (*GatewayPayment, error) {
	url := fmt.Sprintf("%s/v3/payments/%s", c.cfg.BaseURL, paymentID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("access_token", c.cfg.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// Includes client timeout; treated as a retryable gateway failure
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrGatewayPaymentNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: gateway returned status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var payment GatewayPayment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("%w: invalid gateway response: %v", ErrGatewayUnavailable, err)
	}

	return &payment, nil
}

// MockGatewayClient implements GatewayClient for testing
type MockGatewayClient struct {
	mu       sync.RWMutex
	payments map[string]*GatewayPayment
	lookups  []string
	failWith error
}

// NewMockGatewayClient creates a mock gateway with no registered payments
func NewMockGatewayClient() *MockGatewayClient {
	return &MockGatewayClient{
		payments: make(map[string]*GatewayPayment),
	}
}

// RegisterPayment registers a payment the mock will return
func (m *MockGatewayClient) RegisterPayment(p *GatewayPayment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
}

// FailWith makes every lookup fail with err until reset with nil
func (m *MockGatewayClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Lookups returns the payment ids looked up so far
func (m *MockGatewayClient) Lookups() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.lookups))
	copy(out, m.lookups)
	return out
}

// GetPayment returns the registered payment or ErrGatewayPaymentNotFound
func (m *MockGatewayClient) GetPayment(ctx context.Context, paymentID string) (*GatewayPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, paymentID)
	if m.failWith != nil {
		return nil, m.failWith
	}
	if p, ok := m.payments[paymentID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrGatewayPaymentNotFound
}
