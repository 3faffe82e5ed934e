// Package scrape holds the text handling shared by the command scrapers:
// splitting vendor output into per-entity records and pulling named fields
// out of each record.
package scrape // import "infraglue.org/scrape"

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Records returns a scanner whose tokens are the chunks of r between
// occurrences of anchor, which must not be empty. The anchor itself is
// dropped. Chunks holding only whitespace are skipped, so input without any
// entity yields no tokens.
func Records(r io.Reader, anchor string) *bufio.Scanner {
	if anchor == "" {
		panic("scrape: empty anchor")
	}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	s.Split(splitOn([]byte(anchor)))
	return s
}

func splitOn(anchor []byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		start := 0
		for {
			i := bytes.Index(data[start:], anchor)
			if i < 0 {
				break
			}
			end := start + i
			next := end + len(anchor)
			if !isBlank(data[start:end]) {
				return next, data[start:end], nil
			}
			start = next
		}
		if !atEOF {
			// Blank chunks are only dropped together with the next real one.
			return 0, nil, nil
		}
		if isBlank(data[start:]) {
			return len(data), nil, nil
		}
		return len(data), data[start:], nil
	}
}

func isBlank(b []byte) bool {
	return len(bytes.TrimSpace(b)) == 0
}

// FilterLines returns the lines of text containing any of substrs, in
// order, like `egrep "A|B"`.
func FilterLines(text string, substrs ...string) []string {
	var out []string
	s := bufio.NewScanner(strings.NewReader(text))
	for s.Scan() {
		line := s.Text()
		for _, sub := range substrs {
			if strings.Contains(line, sub) {
				out = append(out, line)
				break
			}
		}
	}
	return out
}

// Record is the raw string value of each field found in one chunk.
type Record map[string]string

// Has reports whether the field was matched at all.
func (r Record) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Blank reports whether the field is missing, empty or only whitespace.
func (r Record) Blank(name string) bool {
	return strings.TrimSpace(r[name]) == ""
}

// Patterns maps a field name to a regular expression whose first submatch
// is the field value.
type Patterns map[string]*regexp.Regexp

// Extract applies every pattern to chunk. Fields whose pattern does not
// match are absent from the result.
func (p Patterns) Extract(chunk string) Record {
	rec := make(Record, len(p))
	for name, re := range p {
		if m := re.FindStringSubmatch(chunk); len(m) > 1 {
			rec[name] = m[1]
		}
	}
	return rec
}

// HMSToSeconds converts an HH:MM:SS duration to seconds. Hours may exceed
// two digits.
func HMSToSeconds(s string) (int, error) {
	sp := strings.Split(strings.TrimSpace(s), ":")
	if len(sp) != 3 {
		return 0, errors.Errorf("bad HH:MM:SS value %q", s)
	}
	var total int
	for i, mult := range []int{3600, 60, 1} {
		n, err := strconv.Atoi(sp[i])
		if err != nil || n < 0 {
			return 0, errors.Errorf("bad HH:MM:SS value %q", s)
		}
		total += n * mult
	}
	return total, nil
}
