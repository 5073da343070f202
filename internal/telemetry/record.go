// internal/telemetry/record.go
package telemetry

// StatusRecord is one synthetic drone status sample.
// Field names are part of the wire protocol.
type StatusRecord struct {
	Battery     int     `json:"battery"`
	Altitude    float64 `json:"altitude"`
	Speed       float64 `json:"speed"`
	Temperature int     `json:"temperature"`
	GPSLat      float64 `json:"gps_lat"`
	GPSLon      float64 `json:"gps_lon"`
	Timestamp   int64   `json:"timestamp"`
}

// ---- RANGES (inclusive) ----

const (
	BatteryMin = 20
	BatteryMax = 100

	AltitudeMin = 0.0
	AltitudeMax = 50.0

	SpeedMin = 0.0
	SpeedMax = 15.0

	TemperatureMin = -10
	TemperatureMax = 40

	GPSLatMin = 55.7
	GPSLatMax = 55.8

	GPSLonMin = 37.5
	GPSLonMax = 37.7
)

// ---- PRECISION (decimal places) ----

const (
	AltitudeDecimals = 2
	SpeedDecimals    = 2
	GPSDecimals      = 6
)
