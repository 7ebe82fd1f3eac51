package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomasmartinoa/billing-app/internal/domain"
)

func TestInvoiceListParams(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/invoices", nil)
		params, err := invoiceListParams(r)
		require.NoError(t, err)
		assert.Equal(t, 0, params.Page)
		assert.Equal(t, 20, params.Size)
		assert.Nil(t, params.Status)
		assert.Nil(t, params.DateFrom)
	})

	t.Run("full query", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/invoices?page=2&size=50&status=PAID&search=acme&dateFrom=2026-01-01&dateTo=2026-01-31", nil)
		params, err := invoiceListParams(r)
		require.NoError(t, err)
		assert.Equal(t, 2, params.Page)
		assert.Equal(t, 50, params.Size)
		assert.Equal(t, "acme", params.Search)
		require.NotNil(t, params.Status)
		assert.Equal(t, domain.PaymentPaid, *params.Status)
		require.NotNil(t, params.DateFrom)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *params.DateFrom)
	})

	t.Run("rejects bad values", func(t *testing.T) {
		for _, q := range []string{"page=-1", "size=0", "size=500", "status=UNKNOWN", "dateFrom=31-01-2026"} {
			r := httptest.NewRequest("GET", "/invoices?"+q, nil)
			_, err := invoiceListParams(r)
			assert.Error(t, err, q)
		}
	})
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := parsePaymentMethod(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	empty := ""
	m, err = parsePaymentMethod(&empty)
	require.NoError(t, err)
	assert.Nil(t, m)

	upi := "UPI"
	m, err = parsePaymentMethod(&upi)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, domain.MethodUPI, *m)

	bad := "BARTER"
	_, err = parsePaymentMethod(&bad)
	assert.Error(t, err)
}

func TestPageEnvelope(t *testing.T) {
	env := pageEnvelope([]string{"a", "b"}, 0, 2, 5)
	assert.Equal(t, 3, env["totalPages"])
	assert.Equal(t, true, env["first"])
	assert.Equal(t, false, env["last"])

	env = pageEnvelope(nil, 2, 2, 5)
	assert.Equal(t, true, env["last"])

	env = pageEnvelope(nil, 0, 20, 0)
	assert.Equal(t, 0, env["totalPages"])
	assert.Equal(t, true, env["first"])
	assert.Equal(t, true, env["last"])
}
