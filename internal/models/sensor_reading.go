package models

import (
	"time"
)

// SensorReading is one persisted snapshot of every sensor on the device.
// Rows are write-once.
type SensorReading struct {
	ID                int64     `json:"id" db:"id"`
	Temperatura       float64   `json:"temperatura" db:"temperatura"`
	Humedad           float64   `json:"humedad" db:"humedad"`
	HumedadSuelo      float64   `json:"humedad_suelo" db:"humedad_suelo"`
	CalidadAire       string    `json:"calidad_aire" db:"calidad_aire"`
	EstadoAgua        string    `json:"estado_agua" db:"estado_agua"`
	EstadoTemperatura string    `json:"estado_temperatura" db:"estado_temperatura"`
	EstadoHumedad     string    `json:"estado_humedad" db:"estado_humedad"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// NewReading is a validated reading that has not been stored yet.
type NewReading struct {
	Temperatura       float64
	Humedad           float64
	HumedadSuelo      float64
	CalidadAire       string
	EstadoAgua        string
	EstadoTemperatura string
	EstadoHumedad     string
}

// SavedRecord holds the values storage assigns on insert.
type SavedRecord struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Measurement pairs a value with its qualitative status.
type Measurement struct {
	Valor  float64 `json:"valor"`
	Estado string  `json:"estado"`
}

// LatestView is the response shape for the most recent reading.
type LatestView struct {
	Temperatura  Measurement `json:"temperatura"`
	Humedad      Measurement `json:"humedad"`
	HumedadSuelo float64     `json:"humedad_suelo"`
	CalidadAire  string      `json:"calidad_aire"`
	EstadoAgua   string      `json:"estado_agua"`
	CreatedAt    time.Time   `json:"created_at"`
}

// View reshapes a stored row into the nested response contract.
func (r SensorReading) View() LatestView {
	return LatestView{
		Temperatura:  Measurement{Valor: r.Temperatura, Estado: r.EstadoTemperatura},
		Humedad:      Measurement{Valor: r.Humedad, Estado: r.EstadoHumedad},
		HumedadSuelo: r.HumedadSuelo,
		CalidadAire:  r.CalidadAire,
		EstadoAgua:   r.EstadoAgua,
		CreatedAt:    r.CreatedAt,
	}
}
