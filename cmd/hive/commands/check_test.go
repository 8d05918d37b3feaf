package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInstance(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "honeycomb", "logs"), 0o755))

	cfgPath := filepath.Join(dir, "hive.yml")
	cfg := "version: \"1.0\"\nhoneycomb:\n  path: " + filepath.Join(dir, "honeycomb") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	prev := configPath
	configPath = cfgPath
	t.Cleanup(func() { configPath = prev })
	return dir
}

func writeAction(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "action.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCheck_ApprovedActionSucceeds(t *testing.T) {
	dir := writeInstance(t)
	path := writeAction(t, dir, `{"type":"deal_negotiation","total_revenue":1000,"artist_revenue":700}`)

	err := runCheck(checkCmd, []string{path})
	assert.NoError(t, err)
}

func TestRunCheck_BlockedActionExitsNonZero(t *testing.T) {
	dir := writeInstance(t)
	path := writeAction(t, dir, `{"type":"deal_negotiation","total_revenue":1000,"artist_revenue":100}`)

	err := runCheck(checkCmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action blocked")
}

func TestRunCheck_LogFlagAppendsToConstitutionalLog(t *testing.T) {
	dir := writeInstance(t)
	path := writeAction(t, dir, `{"type":"social_post","content":"hello"}`)

	checkLogDecision = true
	t.Cleanup(func() { checkLogDecision = false })

	require.NoError(t, runCheck(checkCmd, []string{path}))

	logPath := filepath.Join(dir, "honeycomb", "logs", "constitutional_log.jsonl")
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "APPROVE")
}

func TestRunCheck_MalformedActionFails(t *testing.T) {
	dir := writeInstance(t)
	path := writeAction(t, dir, `{not json`)

	err := runCheck(checkCmd, []string{path})
	assert.Error(t, err)
}
