// Package classify maps raw sensor values to qualitative status buckets.
package classify

// Status labels shared by every classifier.
const (
	Low    = "Baja"
	Normal = "Normal"
	High   = "Alta"
)

// Thresholds are exclusive: a value equal to a bound is Normal.
const (
	TemperatureLow  = 18.0
	TemperatureHigh = 30.0
	HumidityLow     = 40.0
	HumidityHigh    = 70.0
)

// Temperature classifies a reading in degrees Celsius.
func Temperature(celsius float64) string {
	return bucket(celsius, TemperatureLow, TemperatureHigh)
}

// Humidity classifies a relative humidity percentage.
func Humidity(pct float64) string {
	return bucket(pct, HumidityLow, HumidityHigh)
}

func bucket(v, low, high float64) string {
	switch {
	case v < low:
		return Low
	case v > high:
		return High
	default:
		return Normal
	}
}
