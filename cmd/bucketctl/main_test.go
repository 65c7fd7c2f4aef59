package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func tempDataArgs(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	return []string{"--data-path", dir, "--db-driver", "sqlite", "--db-dsn", filepath.Join(dir, "test.db")}
}

func TestParseCategories(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := parseCategories([]byte(`
categories:
  - id: 1
    name: Travel
    color: "#3B82F6"
  - id: 9
    name: Cooking
    color: "#111111"
`))
		require.NoError(t, err)
		assert.Equal(t, []domain.Category{
			{ID: 1, Name: "Travel", Color: "#3B82F6"},
			{ID: 9, Name: "Cooking", Color: "#111111"},
		}, got)
	})

	t.Run("empty list", func(t *testing.T) {
		_, err := parseCategories([]byte("categories: []\n"))
		require.Error(t, err)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := parseCategories([]byte("categories:\n  - {id: 2, name: a}\n  - {id: 2, name: b}\n"))
		require.ErrorContains(t, err, "duplicate id 2")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := parseCategories([]byte("categories: {"))
		require.Error(t, err)
	})
}

func TestMigrate(t *testing.T) {
	out, err := runCLI(t, append(tempDataArgs(t), "migrate")...)
	require.NoError(t, err)
	assert.Contains(t, out, "database migrated (sqlite)")
}

func TestSeedCategories(t *testing.T) {
	args := tempDataArgs(t)

	out, err := runCLI(t, append(args, "seed", "categories")...)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 8 categories")

	file := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(file, []byte("categories:\n  - {id: 9, name: Cooking, color: \"#111111\"}\n"), 0o600))

	out, err = runCLI(t, append(args, "seed", "categories", "--file", file)...)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 1 categories")

	_, err = runCLI(t, append(args, "seed", "categories", "--file", filepath.Join(t.TempDir(), "missing.yaml"))...)
	require.Error(t, err)
}

func TestStatsUnknownProfile(t *testing.T) {
	_, err := runCLI(t, append(tempDataArgs(t), "stats", "no-such-profile")...)
	require.Error(t, err)
}

func TestStatsRequiresProfileArg(t *testing.T) {
	_, err := runCLI(t, append(tempDataArgs(t), "stats")...)
	require.Error(t, err)
}

func TestReindexEmptyDatabase(t *testing.T) {
	out, err := runCLI(t, append(tempDataArgs(t), "reindex")...)
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 0 public items")
}
