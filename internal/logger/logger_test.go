package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		t.Run(env, func(t *testing.T) {
			l, sync, err := New(env, "debug")
			require.NoError(t, err)
			require.NotNil(t, l)
			l.Info("logger ready", "environment", env)
			_ = sync()
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New("production", "loud")
	assert.Error(t, err)
}
