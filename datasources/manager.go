/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package datasources

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/tabula/core/tables"
)

// Manager handles loading and caching of named sources.
// Source metadata is registered eagerly; data is loaded lazily on demand.
type Manager struct {
	mu sync.RWMutex

	// Source metadata indexed by name
	sources map[string]Source

	// Cached row sets indexed by source name - populated lazily
	rowSets map[string]*tables.RowSet

	// Registered loaders indexed by source type
	loaders map[string]Loader

	// Base directory for resolving relative paths
	baseDir string
}

// NewManager creates a manager with no loaders registered.
func NewManager() *Manager {
	return &Manager{
		sources: make(map[string]Source),
		rowSets: make(map[string]*tables.RowSet),
		loaders: make(map[string]Loader),
	}
}

// NewDefaultManager creates a manager with the built-in loaders registered.
func NewDefaultManager() *Manager {
	m := NewManager()
	for _, l := range DefaultLoaders() {
		m.RegisterLoader(l)
	}
	return m
}

// RegisterLoader registers a loader for its source type.
// If a loader is already registered for this type, it will be replaced.
func (m *Manager) RegisterLoader(loader Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders[loader.SourceType()] = loader
}

// SourceTypes returns the registered loader types, sorted.
func (m *Manager) SourceTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	types := make([]string, 0, len(m.loaders))
	for t := range m.loaders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// LoadConfig registers the sources listed in a JSON sources file. Relative
// paths in it are resolved against the file's directory.
func (m *Manager) LoadConfig(configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	m.mu.Lock()
	m.baseDir = filepath.Dir(configPath)
	m.mu.Unlock()

	for _, s := range config.Sources {
		if err := m.AddSource(s); err != nil {
			return err
		}
	}
	return nil
}

// SetBaseDir sets the base directory for resolving relative paths.
func (m *Manager) SetBaseDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseDir = dir
}

// AddSource registers a source, replacing any previous one with that name
// and dropping its cached rows.
func (m *Manager) AddSource(source Source) error {
	if source.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if source.Type == "" {
		return fmt.Errorf("source %q: type is required", source.Name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[source.Name] = source
	delete(m.rowSets, source.Name)
	return nil
}

// SourceNames returns all registered source names, sorted.
func (m *Manager) SourceNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.sources))
	for name := range m.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetSource returns the metadata for a source.
func (m *Manager) GetSource(name string) (Source, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sources[name]
	return s, ok
}

// LoadData loads rows for a source by name.
// Returns cached rows if already loaded; otherwise loads from the source.
func (m *Manager) LoadData(sourceName string) (*tables.RowSet, error) {
	m.mu.RLock()
	if rs, ok := m.rowSets[sourceName]; ok {
		m.mu.RUnlock()
		return rs, nil
	}
	source, ok := m.sources[sourceName]
	if !ok {
		m.mu.RUnlock()
		return nil, fmt.Errorf("source %q not found", sourceName)
	}
	baseDir := m.baseDir
	m.mu.RUnlock()

	rs, err := m.load(source.Type, resolveConfigPaths(source.Config, baseDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load source %q: %w", sourceName, err)
	}

	m.mu.Lock()
	m.rowSets[sourceName] = rs
	m.mu.Unlock()

	return rs, nil
}

// Load reads a source that is not registered by name. Nothing is cached.
func (m *Manager) Load(sourceType string, config map[string]string) (*tables.RowSet, error) {
	m.mu.RLock()
	baseDir := m.baseDir
	m.mu.RUnlock()
	return m.load(sourceType, resolveConfigPaths(config, baseDir))
}

func (m *Manager) load(sourceType string, config map[string]string) (*tables.RowSet, error) {
	m.mu.RLock()
	loader, ok := m.loaders[sourceType]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no loader registered for source type %q", sourceType)
	}
	return loader.Load(config)
}

// resolveConfigPaths resolves a relative file_path against baseDir.
func resolveConfigPaths(config map[string]string, baseDir string) map[string]string {
	if baseDir == "" {
		return config
	}
	resolved := make(map[string]string, len(config))
	for k, v := range config {
		if k == "file_path" && v != "" && !filepath.IsAbs(v) {
			resolved[k] = filepath.Join(baseDir, v)
		} else {
			resolved[k] = v
		}
	}
	return resolved
}

// InvalidateCache removes a source from the cache, forcing reload on next access.
func (m *Manager) InvalidateCache(sourceName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rowSets, sourceName)
}

// InvalidateAllCaches removes all sources from the cache.
func (m *Manager) InvalidateAllCaches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rowSets = make(map[string]*tables.RowSet)
}

// IsLoaded returns whether rows for a source are currently cached.
func (m *Manager) IsLoaded(sourceName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rowSets[sourceName]
	return ok
}

// LoadedSources returns names of all currently cached sources, sorted.
func (m *Manager) LoadedSources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.rowSets))
	for name := range m.rowSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
