// Package hits reads twin-ion hit lists.
package hits

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RMahshie/twinion/pkg/models"
)

// ErrMalformedRecord is returned for a line with fewer than four fields or
// a non-numeric field among the first four.
var ErrMalformedRecord = errors.New("malformed hit record")

// fieldNames names the leading fields in order.
var fieldNames = [4]string{"time", "mass", "intensity", "score"}

// Source yields hits in input order, numbering them from 1.
type Source struct {
	scanner *bufio.Scanner
	line    int
}

// NewSource reads comma separated hit records from r, one per line.
// Fields after the fourth are ignored.
func NewSource(r io.Reader) *Source {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Source{scanner: sc}
}

// Next returns the next hit, or io.EOF once the input is exhausted.
func (s *Source) Next() (models.Hit, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return models.Hit{}, fmt.Errorf("failed to read hits: %w", err)
		}
		return models.Hit{}, io.EOF
	}
	s.line++
	return ParseRecord(s.line, s.scanner.Text())
}

// ParseRecord parses one hit line.
func ParseRecord(number int, line string) (models.Hit, error) {
	fields := strings.Split(line, ",")
	if len(fields) < len(fieldNames) {
		return models.Hit{}, fmt.Errorf("line %d: %d fields, want at least %d: %w",
			number, len(fields), len(fieldNames), ErrMalformedRecord)
	}

	var values [4]float64
	for i := range fieldNames {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return models.Hit{}, fmt.Errorf("line %d: invalid %s %q: %w",
				number, fieldNames[i], fields[i], ErrMalformedRecord)
		}
		values[i] = v
	}

	return models.Hit{
		Number:    number,
		Time:      values[0],
		Mass:      values[1],
		Intensity: values[2],
		Score:     values[3],
	}, nil
}
