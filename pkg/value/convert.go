// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package value

import (
	"fmt"
	"reflect"
	"sort"

	"carvel.dev/gotmpl/pkg/orderedmap"
)

// FromGoValue converts a host Go value into a Value. Maps must have string
// keys. Structs convert into objects carrying their exported fields;
// function-typed fields (of type Func) become callable object members.
// Pointers are followed; nil pointers and interfaces become the nil Value.
func FromGoValue(val interface{}) (Value, error) {
	switch typed := val.(type) {
	case nil:
		return Nil(), nil
	case Value:
		return typed, nil
	case Func:
		return FromFunc(typed), nil
	case func(args []Value) (Value, error):
		return FromFunc(typed), nil
	case bool:
		return FromBool(typed), nil
	case string:
		return FromString(typed), nil
	case int:
		return FromInt(int64(typed)), nil
	case int8:
		return FromInt(int64(typed)), nil
	case int16:
		return FromInt(int64(typed)), nil
	case int32:
		return FromInt(int64(typed)), nil
	case int64:
		return FromInt(typed), nil
	case uint:
		return FromUint(uint64(typed)), nil
	case uint8:
		return FromUint(uint64(typed)), nil
	case uint16:
		return FromUint(uint64(typed)), nil
	case uint32:
		return FromUint(uint64(typed)), nil
	case uint64:
		return FromUint(typed), nil
	case float32:
		return FromFloat(float64(typed)), nil
	case float64:
		return FromFloat(typed), nil
	case *orderedmap.Map:
		result := orderedmap.NewMap()
		err := typed.IterateErr(func(k string, item interface{}) error {
			converted, err := FromGoValue(item)
			if err != nil {
				return err
			}
			result.Set(k, converted)
			return nil
		})
		if err != nil {
			return Nil(), err
		}
		return FromMap(result), nil
	}
	return fromReflected(reflect.ValueOf(val))
}

func fromReflected(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Nil(), nil
		}
		return FromGoValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		items := make([]Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := FromGoValue(rv.Index(i).Interface())
			if err != nil {
				return Nil(), err
			}
			items = append(items, item)
		}
		return FromArray(items), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Nil(), fmt.Errorf("unsupported map key type %s (keys must be strings)", rv.Type().Key())
		}
		result := orderedmap.NewMap()
		for _, k := range sortedMapKeys(rv) {
			item, err := FromGoValue(rv.MapIndex(reflect.ValueOf(k)).Interface())
			if err != nil {
				return Nil(), err
			}
			result.Set(k, item)
		}
		return FromMap(result), nil
	case reflect.Struct:
		result := orderedmap.NewMap()
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			if field.PkgPath != "" { // unexported
				continue
			}
			item, err := FromGoValue(rv.Field(i).Interface())
			if err != nil {
				return Nil(), err
			}
			result.Set(field.Name, item)
		}
		return FromObject(result), nil
	}
	return Nil(), fmt.Errorf("unsupported value type %s", rv.Type())
}

func sortedMapKeys(rv reflect.Value) []string {
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys
}
