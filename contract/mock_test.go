package contract

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/calc-consumer/calculator"
)

func newMockClient(t *testing.T) (*Mock, *calculator.Client) {
	t.Helper()

	mock := NewMock(DefaultSchema(), zerolog.Nop())
	client, err := calculator.NewClient("http://producer.test", zerolog.Nop(), calculator.WithHTTPClient(mock.Client()))
	require.NoError(t, err)
	return mock, client
}

func TestMock_DerivedResults(t *testing.T) {
	_, client := newMockClient(t)
	ctx := context.Background()

	tests := []struct {
		op       calculator.Operation
		x, y     float64
		expected float64
	}{
		{calculator.OperationAdd, 5, 3, 8},
		{calculator.OperationAdd, -1.5, 0.25, -1.25},
		{calculator.OperationMultiply, 6, 7, 42},
		{calculator.OperationDivide, 10, 4, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			result, err := client.Calculate(ctx, tt.op, tt.x, tt.y)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, result, 1e-9)
		})
	}
}

func TestMock_DivideByZero(t *testing.T) {
	_, client := newMockClient(t)

	for _, x := range []float64{10, 0} {
		_, err := client.Divide(context.Background(), x, 0)
		var apiErr *calculator.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "division by zero is not allowed", apiErr.Message)
	}
}

func TestMock_Responses(t *testing.T) {
	mock := NewMock(DefaultSchema(), zerolog.Nop())
	httpClient := mock.Client()

	tests := []struct {
		name   string
		url    string
		status int
		body   string
	}{
		{"unknown endpoint", "http://producer.test/subtract?x=1&y=2", 404, `{"error":"no mock response for GET /subtract"}`},
		{"missing operands serve the example", "http://producer.test/add", 200, `{"result":8}`},
		{"health", "http://producer.test/health", 200, `{"status":"healthy"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := httpClient.Get(tt.url)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.JSONEq(t, tt.body, string(body))
		})
	}

	assert.Len(t, mock.Interactions(), len(tests))
	mock.Clear()
	assert.Empty(t, mock.Interactions())
}

func TestMock_AnswersSatisfyContract(t *testing.T) {
	validator, err := NewValidator(DefaultSchema(), zerolog.Nop())
	require.NoError(t, err)

	mock, client := newMockClient(t)
	ctx := context.Background()

	_, _ = client.Add(ctx, 1, 2)
	_, _ = client.Multiply(ctx, 3, 4)
	_, _ = client.Divide(ctx, 9, 3)
	_, _ = client.Divide(ctx, 9, 0)

	interactions := mock.Interactions()
	require.Len(t, interactions, 4)
	for _, in := range interactions {
		result, err := validator.Validate(ctx, in)
		require.NoError(t, err)
		assert.True(t, result.Valid, "%s %v: %v", in.Request.Path, in.Request.Query, result.Errors)
	}
}
