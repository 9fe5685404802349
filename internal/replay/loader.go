// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package replay

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/festivo/festivo/internal/protocol"
)

// scenarioFile is the on-disk YAML schema for demo studio scripts.
// Delays are expressed in milliseconds to keep the files hand-editable.
type scenarioFile struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Steps       []stepFile `yaml:"steps"`
}

type stepFile struct {
	DelayMS int                  `yaml:"delay_ms"`
	Update  protocol.AgentUpdate `yaml:"update"`
}

// LoadScenario reads one scenario script from a YAML file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var sf scenarioFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}
	if sf.Name == "" {
		sf.Name = filepath.Base(path)
	}
	if len(sf.Steps) == 0 {
		return Scenario{}, fmt.Errorf("scenario %s has no steps", sf.Name)
	}

	sc := Scenario{Name: sf.Name, Description: sf.Description}
	for i, step := range sf.Steps {
		if step.DelayMS < 0 {
			return Scenario{}, fmt.Errorf("scenario %s step %d has negative delay", sf.Name, i)
		}
		sc.Steps = append(sc.Steps, Step{
			Delay:  time.Duration(step.DelayMS) * time.Millisecond,
			Update: step.Update,
		})
	}
	return sc, nil
}

// LoadDir loads every *.yaml scenario in a directory, sorted by name.
// A missing directory is not an error - the built-in scenarios still apply.
func LoadDir(dir string) ([]Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var scenarios []Scenario
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		sc, err := LoadScenario(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}

	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].Name < scenarios[j].Name })
	return scenarios, nil
}

// Library returns built-in scenarios merged with any scripts found in dir,
// keyed by name. On-disk scripts override built-ins with the same name.
func Library(dir string) (map[string]Scenario, error) {
	lib := make(map[string]Scenario)
	for _, sc := range BuiltIn() {
		lib[sc.Name] = sc
	}
	loaded, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, sc := range loaded {
		lib[sc.Name] = sc
	}
	return lib, nil
}
