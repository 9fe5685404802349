// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package replay

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festivo/festivo/internal/protocol"
)

const sampleScenario = `
name: office_party
description: Office party with a budget hiccup
steps:
  - delay_ms: 0
    update:
      kind: agent_update
      agent: theme_agent
      status: running
      message: Analyzing party vibe
  - delay_ms: 250
    update:
      kind: agent_update
      agent: theme_agent
      status: completed
      result:
        theme: tropical
  - delay_ms: 100
    update:
      kind: agent_update
      agent: budget_agent
      status: error
      error: budget exceeded
`

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "office_party.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleScenario), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "office_party", sc.Name)
	require.Len(t, sc.Steps, 3)
	assert.Equal(t, time.Duration(0), sc.Steps[0].Delay)
	assert.Equal(t, 250*time.Millisecond, sc.Steps[1].Delay)
	assert.Equal(t, protocol.AgentCompleted, sc.Steps[1].Update.Status)
	assert.Equal(t, map[string]any{"theme": "tropical"}, sc.Steps[1].Update.Result)
	assert.Equal(t, "budget exceeded", sc.Steps[2].Update.Error)
	assert.Equal(t, 350*time.Millisecond, sc.Duration())
}

func TestLoadScenario_Invalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadScenario(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("no steps", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: empty\nsteps: []\n"), 0644))
		_, err := LoadScenario(path)
		assert.ErrorContains(t, err, "no steps")
	})

	t.Run("negative delay", func(t *testing.T) {
		path := filepath.Join(dir, "neg.yaml")
		content := "name: neg\nsteps:\n  - delay_ms: -5\n    update:\n      kind: agent_update\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		_, err := LoadScenario(path)
		assert.ErrorContains(t, err, "negative delay")
	})
}

func TestLibrary(t *testing.T) {
	t.Run("missing dir keeps built-ins", func(t *testing.T) {
		lib, err := Library(filepath.Join(t.TempDir(), "does-not-exist"))
		require.NoError(t, err)
		assert.Contains(t, lib, "happy_path")
		assert.Contains(t, lib, "venue_failure")
		assert.Contains(t, lib, "slow_venue")
	})

	t.Run("on-disk scripts are merged in", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "office.yaml"), []byte(sampleScenario), 0644))

		lib, err := Library(dir)
		require.NoError(t, err)
		assert.Contains(t, lib, "office_party")
		assert.Contains(t, lib, "happy_path")
	})
}
