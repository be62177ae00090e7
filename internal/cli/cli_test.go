package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/superfast-bot/internal/features/auth"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSimulateSpins(t *testing.T) {
	out, err := run(t, "simulate-spins", "--n", "8000", "--seed", "42")
	require.NoError(t, err)

	assert.Contains(t, out, "Spins: 8,000 (seed 42)")
	assert.Contains(t, out, "100 Tickets")
	assert.Contains(t, out, "Try Again")
	assert.Contains(t, out, "Cash paid: ₹")

	again, err := run(t, "simulate-spins", "--n", "8000", "--seed", "42")
	require.NoError(t, err)
	assert.Equal(t, out, again, "same seed gives the same report")
}

func TestSimulateSpinsRejectsZero(t *testing.T) {
	_, err := run(t, "simulate-spins", "--n", "0")
	assert.Error(t, err)
}

func TestCatalogValidate(t *testing.T) {
	out, err := run(t, "catalog", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalogue OK (embedded)")
	assert.Contains(t, out, "rewards:       4")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rewards:\n  - id: x\n    title: X\n    cost: -5\n"), 0o600))
	_, err = run(t, "catalog", "validate", "--path", bad)
	assert.Error(t, err)
}

func TestHashCode(t *testing.T) {
	out, err := run(t, "hash-code", "2468")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.True(t, auth.VerifySecret("2468", hash))
	assert.False(t, auth.VerifySecret("1357", hash))
}
