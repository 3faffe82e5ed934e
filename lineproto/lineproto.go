// Package lineproto defines metric points and their InfluxDB line protocol
// serialization:
//
//	measurement,tag1=v1,tag2=v2 field1=v1,field2="v2" [timestamp]
//
// Tags are serialized sorted by key. Fields keep the order they were added
// in. Integers are written as plain decimals without the "i" suffix so the
// output matches what the telemetry agent's exec input already ingests.
package lineproto // import "infraglue.org/lineproto"

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// TagSet is a set of tag key/value pairs.
type TagSet map[string]string

// Copy creates a new TagSet from t.
func (t TagSet) Copy() TagSet {
	n := make(TagSet, len(t))
	for k, v := range t {
		n[k] = v
	}
	return n
}

// Merge adds or overwrites everything from o into t and returns t.
func (t TagSet) Merge(o TagSet) TagSet {
	for k, v := range o {
		t[k] = v
	}
	return t
}

func (t TagSet) Equal(o TagSet) bool {
	if len(t) != len(o) {
		return false
	}
	for k, v := range t {
		if ov, ok := o[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Keys returns the tag keys, alphabetized.
func (t TagSet) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String converts t to a k=v,k=v string alphabetized by key, escaped for
// line protocol.
func (t TagSet) String() string {
	var b strings.Builder
	for i, k := range t.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(tagEscaper.Replace(k))
		b.WriteByte('=')
		b.WriteString(tagEscaper.Replace(t[k]))
	}
	return b.String()
}

// Field is one key/value pair of a field set. Value must be a string, a
// bool, or any integer or float type.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for Field{key, value}.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

type FieldSet []Field

// Get returns the value of the first field named key.
func (fs FieldSet) Get(key string) (interface{}, bool) {
	for _, f := range fs {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Point is one metric line.
type Point struct {
	Measurement string
	Tags        TagSet
	Fields      FieldSet
	// Timestamp is omitted from the line when zero.
	Timestamp time.Time
}

type MultiPoint []*Point

// Add appends a point to md.
func Add(md *MultiPoint, measurement string, tags TagSet, fields ...Field) {
	*md = append(*md, &Point{
		Measurement: measurement,
		Tags:        tags,
		Fields:      fields,
	})
}

var (
	measurementEscaper = strings.NewReplacer(",", `\,`, " ", `\ `)
	tagEscaper         = strings.NewReplacer(",", `\,`, "=", `\=`, " ", `\ `)
	stringEscaper      = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
)

// Line returns p serialized without a trailing newline.
func (p *Point) Line() (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(measurementEscaper.Replace(p.Measurement))
	if len(p.Tags) > 0 {
		b.WriteByte(',')
		b.WriteString(p.Tags.String())
	}
	b.WriteByte(' ')
	for i, f := range p.Fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(tagEscaper.Replace(f.Key))
		b.WriteByte('=')
		v, err := formatValue(f.Value)
		if err != nil {
			return "", errors.Wrapf(err, "%s field %s", p.Measurement, f.Key)
		}
		b.WriteString(v)
	}
	if !p.Timestamp.IsZero() {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(p.Timestamp.UnixNano(), 10))
	}
	return b.String(), nil
}

func (p *Point) validate() error {
	if p.Measurement == "" {
		return errors.New("empty measurement")
	}
	if len(p.Fields) == 0 {
		return errors.Errorf("%s: no fields", p.Measurement)
	}
	for k, v := range p.Tags {
		if k == "" || v == "" {
			return errors.Errorf("%s: empty tag %q=%q", p.Measurement, k, v)
		}
	}
	for _, f := range p.Fields {
		if f.Key == "" {
			return errors.Errorf("%s: empty field key", p.Measurement)
		}
	}
	return nil
}

func formatValue(v interface{}) (string, error) {
	switch v := v.(type) {
	case string:
		return `"` + stringEscaper.Replace(v) + `"`, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	}
	return "", errors.Errorf("unsupported value type %T", v)
}

func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errors.Errorf("unrepresentable float %v", f)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}
