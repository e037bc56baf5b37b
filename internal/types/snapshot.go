package types

import "time"

// SensorSnapshot is one acquisition cycle of the monitor's sensors.
// Readings of a sensor whose availability flag is false carry no meaning.
type SensorSnapshot struct {
	// BME68x gas sensor (BSEC outputs)
	Temperature         float64 `json:"temperature_c"`
	Humidity            float64 `json:"humidity_pct"`
	Pressure            float64 `json:"pressure_hpa"`
	GasResistance       float64 `json:"gas_resistance_ohm"`
	IAQ                 float64 `json:"iaq"`
	StaticIAQ           float64 `json:"static_iaq"`
	CO2Equivalent       float64 `json:"co2_equivalent_ppm"`
	BreathVOCEquivalent float64 `json:"breath_voc_mg_m3"`
	IAQAccuracy         uint8   `json:"iaq_accuracy"`
	StaticIAQAccuracy   uint8   `json:"static_iaq_accuracy"`
	CO2Accuracy         uint8   `json:"co2_accuracy"`
	BreathVOCAccuracy   uint8   `json:"breath_voc_accuracy"`
	Calibrated          bool    `json:"calibrated"`
	GasSensorAvailable  bool    `json:"gas_sensor_available"`

	// DS18B20 external thermometer
	ExternalTemperature float64 `json:"external_temperature_c"`
	ExternalAvailable   bool    `json:"external_available"`

	// PMS5003 particulate sensor, µg/m³
	PM1_0                uint16 `json:"pm1_0"`
	PM2_5                uint16 `json:"pm2_5"`
	PM10                 uint16 `json:"pm10"`
	ParticulateAvailable bool   `json:"particulate_available"`

	// System data, stamped by the uplink at send time
	Uptime time.Duration `json:"-"`
	RSSI   int8          `json:"-"`
}
