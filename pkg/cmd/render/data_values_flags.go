// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"

	"carvel.dev/gotmpl/pkg/orderedmap"
)

// DataValuesFlags collect the values a template renders against. Inline KVs
// take precedence over file contents, and --data-value-yaml values over
// --data-value values, whatever their order on the command line; within
// one flag, later values win over earlier ones.
type DataValuesFlags struct {
	KVsFromStrings []string
	KVsFromYAML    []string
	FromFiles      []string
}

func (s *DataValuesFlags) Set(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&s.KVsFromStrings, "data-value", "v", nil,
		"Set specific data value to given value, as string (format: key1.subkey=value) (can be specified multiple times)")
	cmd.Flags().StringArrayVar(&s.KVsFromYAML, "data-value-yaml", nil,
		"Set specific data value to given value, parsed as YAML (format: key1.subkey=true) (can be specified multiple times)")
	cmd.Flags().StringArrayVar(&s.FromFiles, "data-values-file", nil,
		"Read data values from a YAML, JSON, or TOML file (by extension) (can be specified multiple times)")
}

// Values merges all sources into a single map usable as the render context.
func (s *DataValuesFlags) Values() (*orderedmap.Map, error) {
	result := orderedmap.NewMap()

	for _, file := range s.FromFiles {
		vals, err := s.file(file)
		if err != nil {
			return nil, fmt.Errorf("Extracting data values from file '%s': %s", file, err)
		}
		merge(result, vals)
	}

	for _, kv := range s.KVsFromStrings {
		if err := s.kv(result, kv, func(raw string) (interface{}, error) { return raw, nil }); err != nil {
			return nil, fmt.Errorf("Extracting data value from KV: %s", err)
		}
	}

	for _, kv := range s.KVsFromYAML {
		if err := s.kv(result, kv, parseYAMLScalar); err != nil {
			return nil, fmt.Errorf("Extracting data value from KV: %s", err)
		}
	}

	return result, nil
}

func (s *DataValuesFlags) kv(result *orderedmap.Map, kv string, valueFunc func(string) (interface{}, error)) error {
	pieces := strings.SplitN(kv, "=", 2)
	if len(pieces) != 2 {
		return fmt.Errorf("Expected format key=value, got '%s'", kv)
	}
	val, err := valueFunc(pieces[1])
	if err != nil {
		return err
	}
	setNested(result, strings.Split(pieces[0], "."), val)
	return nil
}

func (s *DataValuesFlags) file(path string) (*orderedmap.Map, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(bs, &raw); err != nil {
			return nil, fmt.Errorf("Deserializing YAML: %s", err)
		}
	case ".json":
		if err := json.Unmarshal(bs, &raw); err != nil {
			return nil, fmt.Errorf("Deserializing JSON: %s", err)
		}
	case ".toml":
		if err := toml.Unmarshal(bs, &raw); err != nil {
			return nil, fmt.Errorf("Deserializing TOML: %s", err)
		}
	default:
		return nil, fmt.Errorf("Unknown data values file extension '%s' (expected .yml, .yaml, .json, or .toml)", ext)
	}
	return mapToOrdered(raw), nil
}

func parseYAMLScalar(raw string) (interface{}, error) {
	var val interface{}
	if err := yaml.Unmarshal([]byte(raw), &val); err != nil {
		return nil, fmt.Errorf("Deserializing YAML value: %s", err)
	}
	return normalize(val), nil
}

// setNested sets a dotted path, creating intermediate maps as needed.
func setNested(m *orderedmap.Map, path []string, val interface{}) {
	for _, key := range path[:len(path)-1] {
		existing, found := m.Get(key)
		sub, ok := existing.(*orderedmap.Map)
		if !found || !ok {
			sub = orderedmap.NewMap()
			m.Set(key, sub)
		}
		m = sub
	}
	m.Set(path[len(path)-1], val)
}

func merge(dst, src *orderedmap.Map) {
	src.Iterate(func(k string, v interface{}) {
		if subSrc, ok := v.(*orderedmap.Map); ok {
			if existing, found := dst.Get(k); found {
				if subDst, ok := existing.(*orderedmap.Map); ok {
					merge(subDst, subSrc)
					return
				}
			}
		}
		dst.Set(k, v)
	})
}

func mapToOrdered(raw map[string]interface{}) *orderedmap.Map {
	result := orderedmap.NewMap()
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	// Deterministic construction order regardless of Go map iteration.
	sort.Strings(keys)
	for _, k := range keys {
		result.Set(k, normalize(raw[k]))
	}
	return result
}

// normalize rewrites decoded structures into forms the value model accepts.
func normalize(val interface{}) interface{} {
	switch typed := val.(type) {
	case map[string]interface{}:
		return mapToOrdered(typed)
	case map[interface{}]interface{}:
		converted := map[string]interface{}{}
		for k, v := range typed {
			converted[fmt.Sprintf("%v", k)] = v
		}
		return mapToOrdered(converted)
	case []interface{}:
		items := make([]interface{}, len(typed))
		for i, item := range typed {
			items[i] = normalize(item)
		}
		return items
	}
	return val
}
