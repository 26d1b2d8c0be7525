package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key")
}

func TestCreateCustomer(t *testing.T) {
	var gotToken, gotPath string
	var gotBody map[string]string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("access_token")
		gotPath = r.Method + " " + r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(Customer{ID: "cus_123"})
	})

	id, err := client.CreateCustomer(context.Background(), CustomerInput{
		Name:  "Ana Souza",
		Email: "ana@example.com",
		Phone: "11999990000",
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_123", id)
	assert.Equal(t, "test-key", gotToken)
	assert.Equal(t, "POST /customers", gotPath)
	assert.Equal(t, "Ana Souza", gotBody["name"])
	assert.Equal(t, "11999990000", gotBody["mobilePhone"])
}

func TestCreateCustomer_RequiresNameAndEmail(t *testing.T) {
	client := NewClient("http://unused", "key")
	_, err := client.CreateCustomer(context.Background(), CustomerInput{Email: "a@b.com"})
	require.Error(t, err)
	_, err = client.CreateCustomer(context.Background(), CustomerInput{Name: "Ana"})
	require.Error(t, err)
}

func TestDo_AggregatesProviderErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[
			{"code":"invalid_value","description":"O valor é inválido."},
			{"code":"invalid_due_date","description":"A data de vencimento é inválida."}
		]}`))
	})

	_, err := client.GetCustomer(context.Background(), "cus_1")
	require.Error(t, err)

	ge, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, ge.StatusCode)
	assert.Equal(t, "invalid_value", ge.Code)
	assert.Equal(t, "O valor é inválido.; A data de vencimento é inválida.", ge.Message)
	assert.Contains(t, ge.RawBody, "invalid_due_date")
}

func TestDo_UnparsableErrorBodyKeepsRaw(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream blew up"))
	})

	_, err := client.GetCustomer(context.Background(), "cus_1")
	ge, ok := AsError(err)
	require.True(t, ok)
	assert.Empty(t, ge.Message)
	assert.Equal(t, "upstream blew up", ge.RawBody)
}

func TestDo_MissingAPIKey(t *testing.T) {
	client := NewClient("http://unused", "")
	_, err := client.GetCustomer(context.Background(), "cus_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASAAS_API_KEY")
}

func TestErrorIsCustomerRemoved(t *testing.T) {
	tests := []struct {
		name string
		err  Error
		want bool
	}{
		{name: "structured code", err: Error{Code: "invalid_customer"}, want: true},
		{name: "structured code uppercase", err: Error{Code: "INVALID_CUSTOMER"}, want: true},
		{name: "portuguese description", err: Error{Message: "Cliente removido da base"}, want: true},
		{name: "english description", err: Error{Message: "customer was removed"}, want: true},
		{name: "unrelated error", err: Error{Code: "invalid_value", Message: "valor inválido"}, want: false},
	}
	for _, tt := range tests {
		if got := tt.err.IsCustomerRemoved(); got != tt.want {
			t.Fatalf("%s: IsCustomerRemoved = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestUpdateCustomerTaxID(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(Customer{ID: "cus_9"})
	})

	err := client.UpdateCustomerTaxID(context.Background(), "cus_9", "12345678901")
	require.NoError(t, err)
	assert.Equal(t, "PUT /customers/cus_9", gotPath)
	assert.Equal(t, "12345678901", gotBody["cpfCnpj"])
}

func TestCreateCharge_Pix(t *testing.T) {
	var gotBody map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(Charge{ID: "pay_1", Status: ChargeStatusPending, InvoiceURL: "https://inv"})
	})

	due := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	charge, err := client.CreateCharge(context.Background(), ChargeInput{
		CustomerID:  "cus_1",
		BillingType: BillingTypePix,
		Value:       29.90,
		DueDate:     due,
		Description: "Plano Mensal",
	})
	require.NoError(t, err)
	assert.Equal(t, "pay_1", charge.ID)
	assert.Equal(t, "2025-03-02", gotBody["dueDate"])
	assert.Equal(t, BillingTypePix, gotBody["billingType"])
	assert.NotContains(t, gotBody, "creditCard")
}

func TestCreateCharge_CardRequiresDetails(t *testing.T) {
	client := NewClient("http://unused", "key")
	_, err := client.CreateCharge(context.Background(), ChargeInput{
		CustomerID:  "cus_1",
		BillingType: BillingTypeCreditCard,
		Value:       29.90,
		DueDate:     time.Now(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card details")
}

func TestCreateCharge_CardForwardsHolderAndIP(t *testing.T) {
	var gotBody map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(Charge{ID: "pay_2", Status: ChargeStatusConfirmed})
	})

	charge, err := client.CreateCharge(context.Background(), ChargeInput{
		CustomerID:  "cus_1",
		BillingType: BillingTypeCreditCard,
		Value:       29.90,
		DueDate:     time.Now(),
		Card:        &CardDetails{HolderName: "ANA SOUZA", Number: "5162306219378829", ExpiryMonth: "05", ExpiryYear: "2028", Ccv: "318"},
		CardHolder:  &CardHolderInfo{Name: "Ana Souza", Email: "ana@example.com", CpfCnpj: "12345678901", PostalCode: "01310-000", Phone: "11999990000"},
		RemoteIP:    "203.0.113.10",
	})
	require.NoError(t, err)
	assert.True(t, IsInstantSettlement(charge.Status))
	assert.Equal(t, "203.0.113.10", gotBody["remoteIp"])
	require.Contains(t, gotBody, "creditCardHolderInfo")
}

func TestGetPixArtifacts_PrimaryEndpoint(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/pay_1/pixQrCode", r.URL.Path)
		_ = json.NewEncoder(w).Encode(PixArtifacts{Payload: "00020126...", EncodedImage: "iVBOR..."})
	})

	art, err := client.GetPixArtifacts(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "00020126...", art.Payload)
}

func TestGetPixArtifacts_FallsBackToBillingInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/payments/pay_1/pixQrCode":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[{"code":"not_found","description":"não encontrado"}]}`))
		case "/payments/pay_1/billingInfo":
			_, _ = w.Write([]byte(`{"pix":{"payload":"fallback-code","encodedImage":"img"}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	art, err := client.GetPixArtifacts(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "fallback-code", art.Payload)
}

func TestIsPaidStatus(t *testing.T) {
	for _, s := range []string{"RECEIVED", "CONFIRMED", "RECEIVED_IN_CASH", "received", " confirmed "} {
		if !IsPaidStatus(s) {
			t.Fatalf("expected %q to count as paid", s)
		}
	}
	for _, s := range []string{"PENDING", "OVERDUE", "REFUNDED", ""} {
		if IsPaidStatus(s) {
			t.Fatalf("expected %q not to count as paid", s)
		}
	}
}

func TestDueDateFor(t *testing.T) {
	now := time.Date(2025, time.March, 1, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, now.AddDate(0, 0, 1), DueDateFor(BillingTypePix, now))
	assert.Equal(t, now.AddDate(0, 0, 1), DueDateFor(BillingTypeBoleto, now))
	assert.Equal(t, now, DueDateFor(BillingTypeCreditCard, now))
}
