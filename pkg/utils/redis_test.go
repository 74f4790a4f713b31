package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowScriptCompiles(t *testing.T) {
	require.NotNil(t, fixedWindowScript)
	assert.NotEmpty(t, fixedWindowScript.Hash())
}

func TestIncrWindow_ValidatesArguments(t *testing.T) {
	_, _, err := IncrWindow(context.Background(), nil, "k", time.Second)
	assert.Error(t, err)
}

func TestOpenRedis_RequiresURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), RedisConfig{})
	assert.Error(t, err)

	_, err = OpenRedis(context.Background(), RedisConfig{URL: "not a url"})
	assert.Error(t, err)
}
