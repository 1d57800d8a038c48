package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Wire names of the ingestion payload, in the order they are reported.
const (
	FieldTemperatura       = "temperatura_C"
	FieldEstadoTemperatura = "estado_temperatura"
	FieldHumedad           = "humedad_relativa_pct"
	FieldEstadoHumedad     = "estado_humedad"
	FieldCalidadAire       = "calidad_aire"
	FieldAgua              = "agua"
	FieldHumedadSuelo      = "humedad_suelo_pct"
)

// Field keeps the raw JSON of one payload key and whether the key was sent.
type Field struct {
	raw json.RawMessage
	set bool
}

// UnmarshalJSON records presence. A literal null is stored but treated as absent.
func (f *Field) UnmarshalJSON(b []byte) error {
	f.raw = append(f.raw[:0], b...)
	f.set = true
	return nil
}

// Present reports whether the key was sent with a non-null value.
func (f Field) Present() bool {
	return f.set && !bytes.Equal(bytes.TrimSpace(f.raw), []byte("null"))
}

// Float parses a JSON number or a string holding one. Non-finite values fail.
func (f Field) Float() (float64, bool) {
	raw := bytes.TrimSpace(f.raw)
	var v float64
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	} else if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Text returns a JSON string's value, or the literal text of any other value.
func (f Field) Text() string {
	raw := bytes.TrimSpace(f.raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ReadingInput is the ingestion payload before validation.
type ReadingInput struct {
	Temperatura       Field `json:"temperatura_C"`
	EstadoTemperatura Field `json:"estado_temperatura"`
	Humedad           Field `json:"humedad_relativa_pct"`
	EstadoHumedad     Field `json:"estado_humedad"`
	CalidadAire       Field `json:"calidad_aire"`
	Agua              Field `json:"agua"`
	HumedadSuelo      Field `json:"humedad_suelo_pct"`
}

// DecodeReadingInput decodes a payload. An empty payload yields an input
// with every field missing.
func DecodeReadingInput(payload []byte) (ReadingInput, error) {
	var in ReadingInput
	if len(bytes.TrimSpace(payload)) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(payload, &in); err != nil {
		return in, fmt.Errorf("decode reading payload: %w", err)
	}
	return in, nil
}

// Validation error kinds.
var (
	ErrMissingFields = errors.New("missing fields")
	ErrInvalidNumber = errors.New("invalid number")
)

// ValidationError reports which payload fields failed and why.
type ValidationError struct {
	Kind   error
	Fields []string
}

func (e *ValidationError) Error() string {
	list := strings.Join(e.Fields, ", ")
	if e.Kind == ErrInvalidNumber {
		return "Valor numérico inválido: " + list
	}
	return "Faltan campos requeridos: " + list
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// Validate checks presence of all seven fields, then parses the numeric ones.
func (in ReadingInput) Validate() (NewReading, error) {
	fields := []struct {
		name string
		f    Field
	}{
		{FieldTemperatura, in.Temperatura},
		{FieldEstadoTemperatura, in.EstadoTemperatura},
		{FieldHumedad, in.Humedad},
		{FieldEstadoHumedad, in.EstadoHumedad},
		{FieldCalidadAire, in.CalidadAire},
		{FieldAgua, in.Agua},
		{FieldHumedadSuelo, in.HumedadSuelo},
	}
	var missing []string
	for _, fd := range fields {
		if !fd.f.Present() {
			missing = append(missing, fd.name)
		}
	}
	if len(missing) > 0 {
		return NewReading{}, &ValidationError{Kind: ErrMissingFields, Fields: missing}
	}

	var invalid []string
	number := func(name string, f Field) float64 {
		v, ok := f.Float()
		if !ok {
			invalid = append(invalid, name)
		}
		return v
	}
	r := NewReading{
		Temperatura:       number(FieldTemperatura, in.Temperatura),
		Humedad:           number(FieldHumedad, in.Humedad),
		HumedadSuelo:      number(FieldHumedadSuelo, in.HumedadSuelo),
		CalidadAire:       in.CalidadAire.Text(),
		EstadoAgua:        in.Agua.Text(),
		EstadoTemperatura: in.EstadoTemperatura.Text(),
		EstadoHumedad:     in.EstadoHumedad.Text(),
	}
	if len(invalid) > 0 {
		return NewReading{}, &ValidationError{Kind: ErrInvalidNumber, Fields: invalid}
	}
	return r, nil
}
