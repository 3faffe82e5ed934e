package lineproto

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/influxdata/influxdb/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infraglue.org/failure"
)

func TestLineTagsSortedFieldsOrdered(t *testing.T) {
	p := &Point{
		Measurement: "ogg_lag",
		Tags:        TagSet{"type": "EXTRACT", "name": "EXT1"},
		Fields:      FieldSet{F("status", "RUNNING"), F("lag_time_seconds", 90), F("stopped_time", int64(5))},
	}
	line, err := p.Line()
	require.NoError(t, err)
	assert.Equal(t, `ogg_lag,name=EXT1,type=EXTRACT status="RUNNING",lag_time_seconds=90,stopped_time=5`, line)
}

func TestLineNoTags(t *testing.T) {
	p := &Point{Measurement: "up", Fields: FieldSet{F("ok", true), F("ratio", 0.25)}}
	line, err := p.Line()
	require.NoError(t, err)
	assert.Equal(t, "up ok=true,ratio=0.25", line)
}

func TestLineEscaping(t *testing.T) {
	p := &Point{
		Measurement: "my measure,x",
		Tags:        TagSet{"q name": "a=b,c"},
		Fields:      FieldSet{F("msg", `say "hi" \o/`)},
	}
	line, err := p.Line()
	require.NoError(t, err)
	assert.Equal(t, `my\ measure\,x,q\ name=a\=b\,c msg="say \"hi\" \\o/"`, line)
	assert.NoError(t, Check(line))
}

func TestLineTimestamp(t *testing.T) {
	p := &Point{Measurement: "m", Fields: FieldSet{F("v", 1)}, Timestamp: time.Unix(1465839830, 100400200)}
	line, err := p.Line()
	require.NoError(t, err)
	assert.Equal(t, "m v=1 1465839830100400200", line)
}

func TestLineInvalid(t *testing.T) {
	tests := []*Point{
		{Fields: FieldSet{F("v", 1)}},
		{Measurement: "m"},
		{Measurement: "m", Tags: TagSet{"k": ""}, Fields: FieldSet{F("v", 1)}},
		{Measurement: "m", Fields: FieldSet{F("v", []int{1})}},
		{Measurement: "m", Fields: FieldSet{F("", 1)}},
	}
	for i, p := range tests {
		if _, err := p.Line(); err == nil {
			t.Errorf("%d: expected error for %+v", i, p)
		}
	}
}

func TestEncodeDropsInvalid(t *testing.T) {
	var md MultiPoint
	Add(&md, "a", nil, F("v", 1))
	Add(&md, "", nil, F("v", 2))
	Add(&md, "b", TagSet{"t": "x"}, F("v", "s"))
	var b bytes.Buffer
	require.NoError(t, (&Encoder{W: &b}).Encode(md))
	assert.Equal(t, "a v=1\nb,t=x v=\"s\"\n", b.String())
}

func TestEncodeStrict(t *testing.T) {
	var md MultiPoint
	Add(&md, "a", nil, F("v", 1))
	Add(&md, "", nil, F("v", 2))
	var b bytes.Buffer
	assert.Error(t, (&Encoder{W: &b, Strict: true}).Encode(md))
	assert.Empty(t, b.String())
}

func TestEncodeEmpty(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, (&Encoder{W: &b, Strict: true}).Encode(nil))
	assert.Equal(t, 0, b.Len())
}

func TestLinesParseAsInflux(t *testing.T) {
	p := &Point{
		Measurement: "mq_queue",
		Tags:        TagSet{"queue_mgr": "QM1", "queues": "TEST.Q"},
		Fields:      FieldSet{F("depth", 5), F("lputtime", "-1")},
	}
	line, err := p.Line()
	require.NoError(t, err)
	pts, err := models.ParsePointsString(line)
	require.NoError(t, err)
	require.Len(t, pts, 1)
	assert.Equal(t, "mq_queue", string(pts[0].Name()))
	fields, err := pts[0].Fields()
	require.NoError(t, err)
	assert.Equal(t, float64(5), fields["depth"])
	assert.Equal(t, "-1", fields["lputtime"])
}

func TestTagSetMergeCopy(t *testing.T) {
	base := TagSet{"cluster": "c1"}
	c := base.Copy().Merge(TagSet{"group": "g"})
	assert.True(t, c.Equal(TagSet{"cluster": "c1", "group": "g"}))
	assert.Len(t, base, 1)
	assert.Equal(t, "cluster=c1,group=g", c.String())
}

func TestInfluxSinkWrite(t *testing.T) {
	var body, db string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		db = r.URL.Query().Get("db")
		b, _ := ioutil.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	s, err := NewInfluxSink(InfluxConfig{URL: ts.URL, Database: "telegraf"})
	require.NoError(t, err)
	defer s.Close()
	s.now = func() time.Time { return time.Unix(10, 0) }

	var md MultiPoint
	Add(&md, "ogg_lag", TagSet{"name": "EXT1"}, F("lag_time_seconds", 90))
	require.NoError(t, s.Write(md))
	assert.Equal(t, "telegraf", db)
	assert.Contains(t, body, "ogg_lag,name=EXT1 lag_time_seconds=90i 10000000000")
}

func TestInfluxSinkServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"database not found"}`, http.StatusNotFound)
	}))
	defer ts.Close()

	s, err := NewInfluxSink(InfluxConfig{URL: ts.URL, Database: "missing"})
	require.NoError(t, err)
	defer s.Close()

	var md MultiPoint
	Add(&md, "m", nil, F("v", 1))
	err = s.Write(md)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Transport))
}

func TestInfluxSinkRequiresDatabase(t *testing.T) {
	_, err := NewInfluxSink(InfluxConfig{URL: "http://localhost:8086"})
	assert.Error(t, err)
}
