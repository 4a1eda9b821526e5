package contract

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/calc-consumer/calculator"
	"github.com/s0up4200/calc-consumer/store"
)

func TestRecorder_CapturesAndClears(t *testing.T) {
	validator, err := NewValidator(DefaultSchema(), zerolog.Nop())
	require.NoError(t, err)

	recorder := NewRecorder(validator, nil, zerolog.Nop())
	mock := NewMock(DefaultSchema(), zerolog.Nop())
	client, err := calculator.NewClient("http://producer.test", zerolog.Nop(),
		calculator.WithHTTPClient(mock.Client()),
		calculator.WithInterceptor(recorder),
	)
	require.NoError(t, err)

	const n = 5
	for i := 0; i < n; i++ {
		_, err := client.Add(context.Background(), float64(i), 1)
		require.NoError(t, err)
	}

	interactions := recorder.Interactions()
	require.Len(t, interactions, n)
	for _, in := range interactions {
		assert.NotEmpty(t, in.ID)
		assert.Equal(t, "/add", in.Request.Path)
		require.NotNil(t, in.ValidationResult)
		assert.True(t, in.ValidationResult.Valid)
	}

	recorder.Clear()
	assert.Empty(t, recorder.Interactions())
}

func TestRecorder_WithoutValidator(t *testing.T) {
	recorder := NewRecorder(nil, nil, zerolog.Nop())

	result, err := recorder.Validate(context.Background(), interaction("/add", xy("1", "2"), 200, `{"result":3}`))
	require.NoError(t, err)
	assert.Nil(t, result)
	require.Len(t, recorder.Interactions(), 1)
	assert.Nil(t, recorder.Interactions()[0].ValidationResult)
}

func TestRecorder_ForwardsInterceptorErrors(t *testing.T) {
	failing := calculator.InterceptorFunc(func(context.Context, calculator.Interaction) (*calculator.ValidationResult, error) {
		return nil, calculator.ErrValidatorUnavailable
	})
	recorder := NewRecorder(failing, nil, zerolog.Nop())

	_, err := recorder.Validate(context.Background(), interaction("/add", xy("1", "2"), 200, `{"result":3}`))
	assert.True(t, errors.Is(err, calculator.ErrValidatorUnavailable))
	assert.Len(t, recorder.Interactions(), 1)
}

func TestRecorder_Persists(t *testing.T) {
	st, err := store.New(store.TypeBBolt, filepath.Join(t.TempDir(), "interactions.db"))
	require.NoError(t, err)
	defer st.Close()

	recorder := NewRecorder(nil, st, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = recorder.Validate(context.Background(), interaction("/multiply", xy("2", "3"), 200, `{"result":6}`))
		}()
	}
	wg.Wait()

	assert.Len(t, recorder.Interactions(), 10)

	persisted, err := st.List()
	require.NoError(t, err)
	assert.Len(t, persisted, 10)

	recorder.Clear()
	persisted, err = st.List()
	require.NoError(t, err)
	assert.Len(t, persisted, 10, "clearing the recorder leaves the store alone")
}
