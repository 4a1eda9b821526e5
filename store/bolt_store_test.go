package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/calc-consumer/calculator"
)

func interaction(id, path string, status int) calculator.Interaction {
	return calculator.Interaction{
		ID:        id,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Request: calculator.RequestInfo{
			Method: "GET",
			Path:   path,
			Query:  map[string]string{"x": "1", "y": "2"},
		},
		Response: calculator.ResponseInfo{
			StatusCode: status,
			Status:     "200 OK",
			Body:       []byte(`{"result":3}`),
		},
		ValidationResult: &calculator.ValidationResult{Valid: true},
	}
}

func TestBoltStoreAppendListClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "interactions.db")

	s, err := New(TypeBBolt, path)
	require.NoError(t, err)

	require.NoError(t, s.Append(interaction("a", "/add", 200)))
	require.NoError(t, s.Append(interaction("b", "/multiply", 200)))
	require.NoError(t, s.Append(interaction("c", "/divide", 400)))

	got, err := s.List()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "/multiply", got[1].Request.Path)
	assert.Equal(t, `{"result":3}`, string(got[0].Response.Body))
	require.NotNil(t, got[0].ValidationResult)
	assert.True(t, got[0].ValidationResult.Valid)

	require.NoError(t, s.Clear())
	got, err = s.List()
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Append(interaction("d", "/add", 200)))
	got, err = s.List()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d", got[0].ID)
	require.NoError(t, s.Close())
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.db")

	s, err := New(TypeBBolt, path)
	require.NoError(t, err)
	require.NoError(t, s.Append(interaction("a", "/add", 200)))
	require.NoError(t, s.Close())

	s, err = New(TypeBBolt, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.List()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestNew(t *testing.T) {
	t.Run("noop", func(t *testing.T) {
		s, err := New("none", "")
		require.NoError(t, err)
		require.NoError(t, s.Append(interaction("x", "/add", 200)))
		got, err := s.List()
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, s.Clear())
		assert.NoError(t, s.Close())
	})

	t.Run("bbolt without path", func(t *testing.T) {
		_, err := New(TypeBBolt, " ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires a path")
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := New("redis", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported storage type")
	})
}
