package patch

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/bytedance/sonic"
)

// Diff computes the operations that transform from into to. It is how full
// replacement updates are turned into auditable patches: changed keys become
// replace, new keys add, vanished keys remove. Keys are visited in sorted
// order so the result is stable.
func Diff[T any](from, to T) ([]Operation, error) {
	fromDoc, err := toMap(from)
	if err != nil {
		return nil, fmt.Errorf("marshal from value: %w", err)
	}
	toDoc, err := toMap(to)
	if err != nil {
		return nil, fmt.Errorf("marshal to value: %w", err)
	}

	ops := make([]Operation, 0)
	diffMaps("", fromDoc, toDoc, &ops)
	return ops, nil
}

func toMap[T any](v T) (map[string]any, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := sonic.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func diffMaps(prefix string, from, to map[string]any, ops *[]Operation) {
	for _, key := range sortedKeys(to) {
		path := prefix + "/" + escapePointer(key)
		toValue := to[key]
		fromValue, existed := from[key]

		if !existed {
			*ops = append(*ops, Operation{Op: OperationAdd, Path: path, Value: toValue})
			continue
		}

		toChild, toIsMap := toValue.(map[string]any)
		fromChild, fromIsMap := fromValue.(map[string]any)
		if toIsMap && fromIsMap {
			diffMaps(path, fromChild, toChild, ops)
			continue
		}

		if !reflect.DeepEqual(fromValue, toValue) {
			*ops = append(*ops, Operation{Op: OperationReplace, Path: path, Value: toValue})
		}
	}

	for _, key := range sortedKeys(from) {
		if _, kept := to[key]; !kept {
			*ops = append(*ops, Operation{Op: OperationRemove, Path: prefix + "/" + escapePointer(key)})
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func escapePointer(token string) string {
	var b []byte
	for _, ch := range token {
		switch ch {
		case '~':
			b = append(b, '~', '0')
		case '/':
			b = append(b, '~', '1')
		default:
			b = append(b, string(ch)...)
		}
	}
	return string(b)
}
