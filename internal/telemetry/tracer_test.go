package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_DisabledWithoutEndpoint(t *testing.T) {
	p, err := NewProvider(t.Context(), Config{ServiceName: "gardengod"})
	require.NoError(t, err)
	assert.Nil(t, p.tp)
	assert.NoError(t, p.Shutdown(t.Context()))
}

func TestTracer_ReturnsTracer(t *testing.T) {
	_, err := NewProvider(t.Context(), Config{})
	require.NoError(t, err)
	assert.NotNil(t, Tracer("test"))
}
