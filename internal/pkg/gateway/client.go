package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/luispontes/ContaCerta/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.asaas.com/v3"

// Client issues calls against the Asaas billing REST API. It keeps no local
// state; every operation is a plain remote call with the result normalized
// into a typed struct or a *gateway.Error.
type Client struct {
	BaseURL string
	APIKey  string

	HTTPClient *http.Client
}

// NewClient creates a gateway client with explicit configuration. Base URL
// and API key are deployment configuration and are always injected.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		APIKey:  strings.TrimSpace(apiKey),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClientFromEnv builds a client from environment configuration.
func NewClientFromEnv() *Client {
	return NewClient(
		env.GetEnv("ASAAS_API_BASE_URL", defaultAPIBaseURL),
		env.GetEnv("ASAAS_API_KEY", ""),
	)
}

// CustomerInput is the applicant data sent when creating a gateway customer.
type CustomerInput struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"mobilePhone,omitempty"`
	CpfCnpj       string `json:"cpfCnpj,omitempty"`
	PostalCode    string `json:"postalCode,omitempty"`
	AddressNumber string `json:"addressNumber,omitempty"`
}

// Customer is the gateway's view of a billing customer.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	CpfCnpj string `json:"cpfCnpj"`
	Deleted bool   `json:"deleted"`
}

// CreateCustomer registers the applicant as a billing customer and returns
// the gateway customer id.
func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (string, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return "", errors.New("customer name and email are required")
	}

	var out Customer
	if err := c.do(ctx, http.MethodPost, "/customers", in, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", errors.New("gateway customer response missing id")
	}
	return out.ID, nil
}

// GetCustomer fetches the current customer record, used to resolve an
// already-registered tax id before a PIX charge.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	id := strings.TrimSpace(customerID)
	if id == "" {
		return nil, errors.New("customer id is required")
	}

	var out Customer
	if err := c.do(ctx, http.MethodGet, "/customers/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCustomerTaxID pushes a CPF/CNPJ onto an existing customer. PIX
// charges are rejected by the provider for customers without a tax id, so
// this must complete before CreateCharge for that method.
func (c *Client) UpdateCustomerTaxID(ctx context.Context, customerID, taxID string) error {
	id := strings.TrimSpace(customerID)
	if id == "" {
		return errors.New("customer id is required")
	}
	doc := strings.TrimSpace(taxID)
	if doc == "" {
		return errors.New("tax id is required")
	}

	body := map[string]string{"cpfCnpj": doc}
	return c.do(ctx, http.MethodPut, "/customers/"+id, body, nil)
}

// do performs one JSON round trip. Non-2xx responses become a *Error with
// the provider's aggregated error descriptions attached.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("ASAAS_API_KEY is not configured")
	}

	var reqBody io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("access_token", c.APIKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    "gateway response did not match the expected shape",
			RawBody:    string(body),
		}
	}
	return nil
}
