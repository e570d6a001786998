package dataset

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/RMahshie/twinion/pkg/models"
)

// PSI-MS controlled vocabulary accessions read from mzML.
const (
	accScanStartTime = "MS:1000016"
	accFloat32       = "MS:1000521"
	accZlib          = "MS:1000574"
	accMZArray       = "MS:1000514"
	accIntensity     = "MS:1000515"
)

type cvParam struct {
	Accession string `xml:"accession,attr"`
	Name      string `xml:"name,attr"`
	Value     string `xml:"value,attr"`
}

type binaryDataArray struct {
	Params []cvParam `xml:"cvParam"`
	Binary string    `xml:"binary"`
}

type spectrumElement struct {
	ID     string            `xml:"id,attr"`
	Scans  []scanElement     `xml:"scanList>scan"`
	Arrays []binaryDataArray `xml:"binaryDataArrayList>binaryDataArray"`
}

type scanElement struct {
	Params []cvParam `xml:"cvParam"`
}

// ReadMzML decodes every spectrum of an mzML (or indexedmzML) document in
// document order. Scan times are kept in the unit the file uses. Spectra
// without a scan start time are skipped.
func ReadMzML(r io.Reader) (*Dataset, error) {
	dec := xml.NewDecoder(r)
	var spectra []models.Spectrum

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read mzML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "spectrum" {
			continue
		}

		var el spectrumElement
		if err := dec.DecodeElement(&el, &start); err != nil {
			return nil, fmt.Errorf("failed to decode spectrum: %w", err)
		}

		s, ok, err := el.toSpectrum()
		if err != nil {
			return nil, fmt.Errorf("spectrum %q: %w", el.ID, err)
		}
		if ok {
			spectra = append(spectra, s)
		}
	}

	return New(spectra), nil
}

func (el *spectrumElement) toSpectrum() (models.Spectrum, bool, error) {
	var s models.Spectrum

	timeFound := false
	for _, scan := range el.Scans {
		if p, ok := findParam(scan.Params, accScanStartTime); ok {
			t, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
			if err != nil {
				return s, false, fmt.Errorf("invalid scan start time %q: %w", p.Value, err)
			}
			s.Time = t
			timeFound = true
			break
		}
	}
	if !timeFound {
		return s, false, nil
	}

	for _, arr := range el.Arrays {
		var target *[]float64
		switch {
		case hasParam(arr.Params, accMZArray):
			target = &s.Masses
		case hasParam(arr.Params, accIntensity):
			target = &s.Intensities
		default:
			continue
		}

		values, err := arr.decode()
		if err != nil {
			return s, false, err
		}
		*target = values
	}

	return s, true, nil
}

// decode turns the base64 payload into float64 values.
func (arr *binaryDataArray) decode() ([]float64, error) {
	payload := strings.Join(strings.Fields(arr.Binary), "")
	if payload == "" {
		return []float64{}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 array: %w", err)
	}

	if hasParam(arr.Params, accZlib) {
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid zlib array: %w", err)
		}
		raw, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to inflate array: %w", err)
		}
	}

	if hasParam(arr.Params, accFloat32) {
		if len(raw)%4 != 0 {
			return nil, fmt.Errorf("32-bit array has %d bytes", len(raw))
		}
		out := make([]float64, len(raw)/4)
		for i := range out {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		}
		return out, nil
	}

	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("64-bit array has %d bytes", len(raw))
	}
	out := make([]float64, len(raw)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return out, nil
}

func findParam(params []cvParam, accession string) (cvParam, bool) {
	for _, p := range params {
		if p.Accession == accession {
			return p, true
		}
	}
	return cvParam{}, false
}

func hasParam(params []cvParam, accession string) bool {
	_, ok := findParam(params, accession)
	return ok
}
