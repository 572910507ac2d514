// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carvel.dev/gotmpl/pkg/orderedmap"
)

func TestDataValuesFromKVs(t *testing.T) {
	flags := DataValuesFlags{KVsFromStrings: []string{"name=world", "nested.key=x"}}
	vals, err := flags.Values()
	require.NoError(t, err)

	name, found := vals.Get("name")
	require.True(t, found)
	assert.Equal(t, "world", name)

	nested, found := vals.Get("nested")
	require.True(t, found)
	nestedMap, ok := nested.(*orderedmap.Map)
	require.True(t, ok)
	key, found := nestedMap.Get("key")
	require.True(t, found)
	assert.Equal(t, "x", key)
}

func TestDataValuesFromYAMLKVs(t *testing.T) {
	flags := DataValuesFlags{KVsFromYAML: []string{"count=3", "enabled=true", "name=str"}}
	vals, err := flags.Values()
	require.NoError(t, err)

	count, _ := vals.Get("count")
	assert.Equal(t, 3, count)
	enabled, _ := vals.Get("enabled")
	assert.Equal(t, true, enabled)
	name, _ := vals.Get("name")
	assert.Equal(t, "str", name)
}

func TestDataValuesBadKV(t *testing.T) {
	flags := DataValuesFlags{KVsFromStrings: []string{"no-equals-sign"}}
	_, err := flags.Values()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected format key=value")
}

func TestDataValuesFromFiles(t *testing.T) {
	dir := t.TempDir()

	yamlFile := filepath.Join(dir, "values.yml")
	require.NoError(t, os.WriteFile(yamlFile, []byte("name: from-yaml\nnums: [1, 2]\n"), 0600))

	jsonFile := filepath.Join(dir, "values.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(`{"json_key": "from-json"}`), 0600))

	tomlFile := filepath.Join(dir, "values.toml")
	require.NoError(t, os.WriteFile(tomlFile, []byte("toml_key = \"from-toml\"\n"), 0600))

	flags := DataValuesFlags{FromFiles: []string{yamlFile, jsonFile, tomlFile}}
	vals, err := flags.Values()
	require.NoError(t, err)

	for key, expected := range map[string]interface{}{
		"name": "from-yaml", "json_key": "from-json", "toml_key": "from-toml",
	} {
		val, found := vals.Get(key)
		require.True(t, found, "key: %s", key)
		assert.Equal(t, expected, val)
	}
}

func TestDataValuesKVsOverrideFiles(t *testing.T) {
	dir := t.TempDir()
	yamlFile := filepath.Join(dir, "values.yml")
	require.NoError(t, os.WriteFile(yamlFile, []byte("name: from-file\n"), 0600))

	flags := DataValuesFlags{
		FromFiles:      []string{yamlFile},
		KVsFromStrings: []string{"name=from-flag"},
	}
	vals, err := flags.Values()
	require.NoError(t, err)
	name, _ := vals.Get("name")
	assert.Equal(t, "from-flag", name)
}

func TestDataValuesUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "values.ini")
	require.NoError(t, os.WriteFile(file, []byte("x=1"), 0600))

	flags := DataValuesFlags{FromFiles: []string{file}}
	_, err := flags.Values()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown data values file extension")
}
