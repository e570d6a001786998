package extraction

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/RMahshie/twinion/pkg/models"
)

// FormatFloat renders v in shortest round-trip form. Integral values keep a
// trailing ".0" and magnitudes outside [1e-4, 1e16) use exponent notation,
// so output matches the reference dumps byte for byte.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}

	e := strconv.FormatFloat(v, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}

	f := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(f, ".") {
		f += ".0"
	}
	return f
}

// AppendRecord appends one output line for r. Lookups that found no index
// are written as a bare 0.
func AppendRecord(buf []byte, r models.ExtractionRecord) []byte {
	buf = append(buf, FormatFloat(r.Time)...)
	buf = appendPair(buf, r.LowFound, r.MassLow, r.IntensityLow)
	buf = appendPair(buf, r.HighFound, r.MassHigh, r.IntensityHigh)
	return append(buf, '\n')
}

func appendPair(buf []byte, found bool, mass, intensity float64) []byte {
	if !found {
		return append(buf, " 0 0"...)
	}
	buf = append(buf, ' ')
	buf = append(buf, FormatFloat(mass)...)
	buf = append(buf, ' ')
	return append(buf, FormatFloat(intensity)...)
}

// Encode renders a whole output unit.
func Encode(records []models.ExtractionRecord) []byte {
	var b bytes.Buffer
	b.Grow(len(records) * 96)
	line := make([]byte, 0, 128)
	for _, r := range records {
		line = AppendRecord(line[:0], r)
		b.Write(line)
	}
	return b.Bytes()
}
