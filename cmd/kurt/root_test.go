package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sandevgo/kurt/pkg/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitEnv(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, initEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("KURT_TEST_VALUE=from-file\nKURT_TEST_KEEP=from-file\n"), 0o600))
	t.Setenv("KURT_TEST_KEEP", "from-env")
	t.Cleanup(func() { os.Unsetenv("KURT_TEST_VALUE") })

	require.NoError(t, initEnv(path))

	assert.Equal(t, "from-file", os.Getenv("KURT_TEST_VALUE"))
	assert.Equal(t, "from-env", os.Getenv("KURT_TEST_KEEP"))
}

func TestEffectiveEnv_MasksSecrets(t *testing.T) {
	t.Setenv("LINEAR_API_KEY", "lin_secret")
	t.Setenv("BOT_API_TOKEN", "bot_secret")
	t.Setenv("LLM_MODEL", "gpt-4o")

	out, err := effectiveEnv(context.Background(), false)
	require.NoError(t, err)

	assert.Contains(t, out, "LLM_MODEL=gpt-4o\n")
	assert.Contains(t, out, "LINEAR_API_KEY="+env.SecretMask+"\n")
	assert.NotContains(t, out, "bot_secret")

	out, err = effectiveEnv(context.Background(), true)
	require.NoError(t, err)
	assert.Contains(t, out, "BOT_API_TOKEN=bot_secret\n")
}
