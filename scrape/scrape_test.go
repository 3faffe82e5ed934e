package scrape

import (
	"regexp"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(t *testing.T, text, anchor string) []string {
	s := Records(strings.NewReader(text), anchor)
	var out []string
	for s.Scan() {
		out = append(out, s.Text())
	}
	require.NoError(t, s.Err())
	return out
}

func TestRecordsSplit(t *testing.T) {
	text := "header\nAMQ8450: one\nAMQ8450: two\n"
	assert.Equal(t, []string{"header\n", "8450: one\n", "8450: two\n"}, records(t, text, "AMQ"))
}

func TestRecordsSkipsBlankChunks(t *testing.T) {
	assert.Equal(t, []string{"x"}, records(t, "AMQAMQ  \nAMQx", "AMQ"))
}

func TestRecordsKeepsChunksAfterBlankRuns(t *testing.T) {
	text := "AMQ\n   QUEUE(A)\nAMQ  \nAMQ\n   QUEUE(B)\nAMQ\nAMQ \n"
	want := []string{"\n   QUEUE(A)\n", "\n   QUEUE(B)\n"}
	assert.Equal(t, want, records(t, text, "AMQ"))

	s := Records(iotest.OneByteReader(strings.NewReader(text)), "AMQ")
	var got []string
	for s.Scan() {
		got = append(got, s.Text())
	}
	require.NoError(t, s.Err())
	assert.Equal(t, want, got)
}

func TestRecordsEmpty(t *testing.T) {
	assert.Empty(t, records(t, "", "AMQ"))
	assert.Empty(t, records(t, "   \n", "AMQ"))
}

func TestRecordsPanicsOnEmptyAnchor(t *testing.T) {
	assert.Panics(t, func() { Records(strings.NewReader("x"), "") })
}

func TestFilterLines(t *testing.T) {
	text := "MANAGER     RUNNING\nEXTRACT     RUNNING     EXT1\nREPLICAT    STOPPED     REP1\n"
	assert.Equal(t, []string{
		"EXTRACT     RUNNING     EXT1",
		"REPLICAT    STOPPED     REP1",
	}, FilterLines(text, "EXTRACT", "REPLICAT"))
	assert.Nil(t, FilterLines(text, "NOPE"))
}

func TestExtract(t *testing.T) {
	p := Patterns{
		"name":  regexp.MustCompile(`(?m)NAME\((.*)\)`),
		"depth": regexp.MustCompile(`(?m)DEPTH\((.*)\)`),
	}
	rec := p.Extract("NAME(Q1)\nDEPTH( )")
	assert.Equal(t, "Q1", rec["name"])
	assert.True(t, rec.Has("depth"))
	assert.True(t, rec.Blank("depth"))

	rec = p.Extract("NAME(Q2)")
	assert.False(t, rec.Has("depth"))
	assert.True(t, rec.Blank("depth"))
}

func TestHMSToSeconds(t *testing.T) {
	tests := map[string]int{
		"00:01:30": 90,
		"00:00:00": 0,
		"01:02:03": 3723,
		"100:00:01": 360001,
	}
	for in, want := range tests {
		got, err := HMSToSeconds(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want, got, in)
		}
	}
	for _, bad := range []string{"", "1:2", "aa:00:00", "00:-1:00"} {
		_, err := HMSToSeconds(bad)
		assert.Error(t, err, bad)
	}
}
