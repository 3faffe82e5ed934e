// Package powershell renders decoded YAML or JSON mappings as PowerShell
// hashtable literals.
package powershell // import "infraglue.org/powershell"

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ToPowershell returns v as @{'key'='value';...}. Keys are sorted and
// values are written the way Python's str() would write them, so booleans
// become True and False. ok is false if v is not a mapping.
func ToPowershell(v interface{}) (s string, ok bool) {
	kvs, ok := entries(v)
	if !ok {
		return "", false
	}
	var b strings.Builder
	b.WriteString("@{")
	for _, e := range kvs {
		fmt.Fprintf(&b, "'%s'='%s';", e.key, str(e.value))
	}
	b.WriteString("}")
	return b.String(), true
}

type entry struct {
	key   string
	value interface{}
}

// entries returns the pairs of a mapping sorted by their rendered key.
func entries(v interface{}) ([]entry, bool) {
	var kvs []entry
	switch m := v.(type) {
	case map[string]interface{}:
		for k, v := range m {
			kvs = append(kvs, entry{k, v})
		}
	case map[interface{}]interface{}:
		for k, v := range m {
			kvs = append(kvs, entry{str(k), v})
		}
	default:
		return nil, false
	}
	sort.Slice(kvs, func(i, j int) bool { return kvs[i].key < kvs[j].key })
	return kvs, true
}

// str is Python's str(): strings are bare, containers use repr.
func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return repr(v)
}

func repr(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return "'" + strings.Replace(strings.Replace(t, `\`, `\\`, -1), "'", `\'`, -1) + "'"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return float(t)
	case []interface{}:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = repr(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]interface{}, map[interface{}]interface{}:
		kvs, _ := entries(t)
		parts := make([]string, len(kvs))
		for i, e := range kvs {
			parts[i] = repr(e.key) + ": " + repr(e.value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprint(v)
}

func float(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if f == math.Trunc(f) && !strings.ContainsAny(s, "e.") {
		s += ".0"
	}
	return s
}
