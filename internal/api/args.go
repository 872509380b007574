package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// DecodeArgs parses the args form field: a JSON object, "" meaning {}.
func DecodeArgs(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// ArgsToArgv converts a JSON args object into skill argv. Keys are visited
// in sorted order: strings and numbers become --key=value, true becomes
// --key, false and null are skipped. Array elements become positional
// arguments after all flags.
func ArgsToArgv(args map[string]any) ([]string, error) {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var flags, positional []string
	for _, k := range keys {
		switch v := args[k].(type) {
		case nil:
		case bool:
			if v {
				flags = append(flags, "--"+k)
			}
		case string, json.Number, float64:
			flags = append(flags, fmt.Sprintf("--%s=%v", k, v))
		case []any:
			for i, item := range v {
				tok, err := scalar(item)
				if err != nil {
					return nil, fmt.Errorf("args.%s[%d]: %w", k, i, err)
				}
				positional = append(positional, tok)
			}
		default:
			return nil, fmt.Errorf("args.%s: unsupported value of type %T", k, v)
		}
	}
	return append(flags, positional...), nil
}

func scalar(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number, float64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}
