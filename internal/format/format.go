// Package format renders command output and reads target files.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/OpenCHAMI/mercator/pkg/record"
)

type DataFormat string

const (
	FORMAT_LIST DataFormat = "list"
	FORMAT_JSON DataFormat = "json"
	FORMAT_YAML DataFormat = "yaml"
)

var _ pflag.Value = (*DataFormat)(nil)

func (df DataFormat) String() string {
	return string(df)
}

func (df *DataFormat) Set(v string) error {
	switch DataFormat(v) {
	case FORMAT_LIST, FORMAT_JSON, FORMAT_YAML:
		*df = DataFormat(v)
		return nil
	default:
		return fmt.Errorf("must be one of %v", []DataFormat{FORMAT_LIST, FORMAT_JSON, FORMAT_YAML})
	}
}

func (df DataFormat) Type() string {
	return "DataFormat"
}

// Marshal encodes data as json or yaml.
func Marshal(data any, outFormat DataFormat) ([]byte, error) {
	switch outFormat {
	case FORMAT_JSON:
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data into JSON: %w", err)
		}
		return b, nil
	case FORMAT_YAML:
		b, err := yaml.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data into YAML: %w", err)
		}
		return b, nil
	case FORMAT_LIST:
		return nil, fmt.Errorf("list output cannot be marshaled")
	default:
		return nil, fmt.Errorf("unknown data format: %s", outFormat)
	}
}

// Unmarshal decodes json or yaml data into v.
func Unmarshal(data []byte, v any, inFormat DataFormat) error {
	switch inFormat {
	case FORMAT_JSON:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to unmarshal JSON data: %w", err)
		}
	case FORMAT_YAML:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to unmarshal YAML data: %w", err)
		}
	case FORMAT_LIST:
		return fmt.Errorf("list input cannot be unmarshaled")
	default:
		return fmt.Errorf("unknown data format: %s", inFormat)
	}
	return nil
}

// DataFormatFromFileExt picks json or yaml from the extension of path and
// falls back to defaultFmt.
func DataFormatFromFileExt(path string, defaultFmt DataFormat) DataFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FORMAT_JSON
	case ".yaml", ".yml":
		return FORMAT_YAML
	}
	return defaultFmt
}

// Write prints data to w. The list format prints one "key: value" line per
// field, flattening nested objects to dotted keys and separating records
// with a blank line.
func Write(w io.Writer, data any, outFormat DataFormat) error {
	if outFormat != FORMAT_LIST {
		b, err := Marshal(data, outFormat)
		if err != nil {
			return err
		}
		if len(b) > 0 && b[len(b)-1] != '\n' {
			b = append(b, '\n')
		}
		_, err = w.Write(b)
		return err
	}

	var lines []string
	switch v := data.(type) {
	case string:
		lines = []string{v}
	case []*record.Record:
		for i, r := range v {
			if i > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, recordLines(r)...)
		}
	case *record.Record:
		lines = recordLines(v)
	default:
		lines = valueLines("", generic(data))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func recordLines(r *record.Record) []string {
	var lines []string
	for _, key := range r.Keys() {
		v, _ := r.Get(key)
		if nested, ok := v.(*record.Record); ok {
			for _, line := range recordLines(nested) {
				lines = append(lines, key+"."+line)
			}
			continue
		}
		lines = append(lines, valueLines(key, generic(v))...)
	}
	return lines
}

// generic reduces v to the shapes encoding/json decodes into.
func generic(v any) any {
	switch v.(type) {
	case nil, string, bool, int, int64, float64:
		return v
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return string(b)
	}
	return out
}

func valueLines(prefix string, v any) []string {
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}
	switch t := v.(type) {
	case map[string]any:
		keys := maps.Keys(t)
		slices.Sort(keys)
		var lines []string
		for _, k := range keys {
			lines = append(lines, valueLines(join(k), t[k])...)
		}
		return lines
	case []any:
		if prefix == "" {
			var lines []string
			for i, item := range t {
				if i > 0 {
					lines = append(lines, "")
				}
				lines = append(lines, valueLines("", item)...)
			}
			return lines
		}
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = scalar(item)
		}
		return []string{fmt.Sprintf("%s: [%s]", prefix, strings.Join(parts, ", "))}
	}
	if prefix == "" {
		return []string{scalar(v)}
	}
	return []string{fmt.Sprintf("%s: %s", prefix, scalar(v))}
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		b, _ := json.Marshal(t)
		return string(b)
	}
	return fmt.Sprint(v)
}
