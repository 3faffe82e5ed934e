// Package ansible implements the contract of an Ansible binary module:
// arguments arrive as a JSON file named on the command line, and the result
// is a single JSON object on stdout.
package ansible // import "infraglue.org/ansible"

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"infraglue.org/failure"
)

// Types accepted in Option.Type.
const (
	TypeStr  = "str"
	TypeInt  = "int"
	TypeBool = "bool"
	TypeList = "list"
	TypeDict = "dict"
)

const masked = "********"

// Option describes one module argument.
type Option struct {
	Type     string
	Required bool
	Default  interface{}
	Choices  []string
	// NoLog values are masked wherever they appear in the module output.
	NoLog bool
}

type Spec map[string]Option

// Result is the JSON object a module prints.
type Result map[string]interface{}

var (
	stdout io.Writer = os.Stdout
	exit             = os.Exit
)

type Module struct {
	Name      string
	CheckMode bool

	raw    map[string]interface{}
	params map[string]interface{}
	secret []string
}

// Load reads the arguments file named by args[1]. The file holds a JSON
// object or, for old style invocations, space separated key=value pairs.
func Load(args []string) (*Module, error) {
	if len(args) < 2 {
		return nil, failure.Validationf("load", "usage: %s <args file>", name(args))
	}
	b, err := ioutil.ReadFile(args[1])
	if err != nil {
		return nil, failure.Wrap(failure.Validation, err, "load")
	}
	m := &Module{Name: name(args), raw: map[string]interface{}{}}
	if s := strings.TrimSpace(string(b)); strings.HasPrefix(s, "{") {
		if err := json.Unmarshal(b, &m.raw); err != nil {
			return nil, failure.Wrap(failure.Validation, errors.Wrap(err, "parse arguments"), "load")
		}
	} else {
		for _, kv := range strings.Fields(s) {
			sp := strings.SplitN(kv, "=", 2)
			if len(sp) != 2 {
				return nil, failure.Validationf("load", "argument %q is not key=value", kv)
			}
			m.raw[sp[0]] = strings.Trim(sp[1], `'"`)
		}
	}
	if v, ok := m.raw["_ansible_check_mode"]; ok {
		m.CheckMode, _ = toBool(v)
	}
	return m, nil
}

func name(args []string) string {
	if len(args) == 0 {
		return "module"
	}
	n := args[0]
	if i := strings.LastIndexAny(n, `/\`); i >= 0 {
		n = n[i+1:]
	}
	return strings.TrimSuffix(n, ".exe")
}

// New returns a module over already parsed arguments.
func New(name string, args map[string]interface{}) *Module {
	m := &Module{Name: name, raw: args}
	if v, ok := args["_ansible_check_mode"]; ok {
		m.CheckMode, _ = toBool(v)
	}
	return m
}

// Decode validates the arguments against spec and stores them in v, a
// pointer to a struct with json tags named after the options.
func (m *Module) Decode(spec Spec, v interface{}) error {
	params, err := m.validate(spec)
	if err != nil {
		return err
	}
	m.params = params
	b, err := json.Marshal(params)
	if err != nil {
		return failure.Wrap(failure.Validation, err, "decode")
	}
	if err := json.Unmarshal(b, v); err != nil {
		return failure.Wrap(failure.Validation, err, "decode")
	}
	return nil
}

func (m *Module) validate(spec Spec) (map[string]interface{}, error) {
	var unsupported []string
	for k := range m.raw {
		if _, ok := spec[k]; !ok && !strings.HasPrefix(k, "_ansible_") {
			unsupported = append(unsupported, k)
		}
	}
	if len(unsupported) > 0 {
		sort.Strings(unsupported)
		return nil, failure.Validationf("", "unsupported parameters for (%s) module: %s", m.Name, strings.Join(unsupported, ", "))
	}
	var missing []string
	params := make(map[string]interface{}, len(spec))
	for _, k := range sortedKeys(spec) {
		o := spec[k]
		raw, ok := m.raw[k]
		if !ok || raw == nil {
			if o.Required {
				missing = append(missing, k)
				continue
			}
			raw = o.Default
		}
		if raw == nil {
			params[k] = nil
			continue
		}
		val, err := coerce(o.Type, raw)
		if err != nil {
			return nil, failure.Validationf("", "argument %s is of type %T and we were unable to convert to %s: %v", k, raw, o.Type, err)
		}
		if err := checkChoices(k, o.Choices, val); err != nil {
			return nil, err
		}
		if o.NoLog {
			if s := fmt.Sprint(val); s != "" {
				m.secret = append(m.secret, s)
			}
		}
		params[k] = val
	}
	if len(missing) > 0 {
		return nil, failure.Validationf("", "missing required arguments: %s", strings.Join(missing, ", "))
	}
	return params, nil
}

func sortedKeys(spec Spec) []string {
	keys := make([]string, 0, len(spec))
	for k := range spec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func checkChoices(k string, choices []string, val interface{}) error {
	if len(choices) == 0 {
		return nil
	}
	var vals []string
	switch v := val.(type) {
	case []string:
		vals = v
	default:
		vals = []string{fmt.Sprint(v)}
	}
outer:
	for _, v := range vals {
		for _, c := range choices {
			if v == c {
				continue outer
			}
		}
		return failure.Validationf("", "value of %s must be one of: %s, got: %s", k, strings.Join(choices, ", "), v)
	}
	return nil
}

func coerce(typ string, v interface{}) (interface{}, error) {
	switch typ {
	case "", TypeStr:
		switch s := v.(type) {
		case string:
			return s, nil
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64), nil
		case bool:
			if s {
				return "True", nil
			}
			return "False", nil
		}
		return nil, errors.Errorf("not a string")
	case TypeInt:
		switch n := v.(type) {
		case float64:
			if n != float64(int64(n)) {
				return nil, errors.Errorf("%v is not an integer", n)
			}
			return int64(n), nil
		case string:
			return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		}
		return nil, errors.Errorf("not an integer")
	case TypeBool:
		return toBool(v)
	case TypeList:
		switch l := v.(type) {
		case []interface{}:
			out := make([]string, len(l))
			for i, e := range l {
				s, err := coerce(TypeStr, e)
				if err != nil {
					return nil, err
				}
				out[i] = s.(string)
			}
			return out, nil
		case string:
			if l == "" {
				return []string{}, nil
			}
			out := strings.Split(l, ",")
			for i := range out {
				out[i] = strings.TrimSpace(out[i])
			}
			return out, nil
		}
		s, err := coerce(TypeStr, v)
		if err != nil {
			return nil, err
		}
		return []string{s.(string)}, nil
	case TypeDict:
		if d, ok := v.(map[string]interface{}); ok {
			return d, nil
		}
		return nil, errors.Errorf("not a dictionary")
	}
	return nil, errors.Errorf("unknown type %q", typ)
}

func toBool(v interface{}) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case float64:
		return b != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "yes", "on", "1", "true", "y", "t":
			return true, nil
		case "no", "off", "0", "false", "n", "f", "":
			return false, nil
		}
	}
	return false, errors.Errorf("%v is not a boolean", v)
}

// Param returns a validated argument.
func (m *Module) Param(k string) interface{} {
	return m.params[k]
}

// Exit prints r and exits 0. changed defaults to false.
func (m *Module) Exit(r Result) {
	if r == nil {
		r = Result{}
	}
	if _, ok := r["changed"]; !ok {
		r["changed"] = false
	}
	m.print(r)
	exit(0)
}

// Fail prints a failed result carrying msg and exits 1.
func (m *Module) Fail(msg string) {
	m.FailResult(msg, nil)
}

func (m *Module) Failf(format string, args ...interface{}) {
	m.Fail(fmt.Sprintf(format, args...))
}

// FailResult is Fail with extra result fields.
func (m *Module) FailResult(msg string, r Result) {
	out := Result{}
	for k, v := range r {
		out[k] = v
	}
	out["failed"] = true
	out["msg"] = msg
	if _, ok := out["changed"]; !ok {
		out["changed"] = false
	}
	m.print(out)
	exit(1)
}

func (m *Module) print(r Result) {
	b, err := json.Marshal(m.mask(map[string]interface{}(r)))
	if err != nil {
		b = []byte(`{"failed": true, "msg": "cannot encode module result"}`)
	}
	fmt.Fprintln(stdout, string(b))
}

func (m *Module) mask(v interface{}) interface{} {
	if len(m.secret) == 0 {
		return v
	}
	switch t := v.(type) {
	case string:
		for _, s := range m.secret {
			t = strings.Replace(t, s, masked, -1)
		}
		return t
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = m.mask(e)
		}
		return out
	case Result:
		return m.mask(map[string]interface{}(t))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = m.mask(e)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, e := range t {
			out[i] = m.mask(e).(string)
		}
		return out
	}
	return v
}
