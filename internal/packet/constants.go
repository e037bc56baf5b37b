package packet

// Telemetry packet layout (little-endian, no padding, 42 bytes):
//
//	Header      timestamp(4)
//	Gas sensor  temp(2) hum(2) press(2) gas(4) iaq(2) siaq(2) co2(2) voc(2)
//	            iaqAcc(1) co2Acc(1) vocAcc(1) flags(1)
//	External    temp(2) flags(1)
//	Particulate pm1(2) pm2.5(2) pm10(2) flags(1)
//	System      uptime(4) rssi(1)
//	Checksum    xor(1)
//
// Receivers parse positionally; offsets are protocol-locked.
const (
	Size = 42

	offTimestamp = 0

	offTemperature   = 4
	offHumidity      = 6
	offPressure      = 8
	offGasResistance = 10
	offIAQ           = 14
	offStaticIAQ     = 16
	offCO2           = 18
	offBreathVOC     = 20
	offIAQAccuracy   = 22
	offCO2Accuracy   = 23
	offVOCAccuracy   = 24
	offGasFlags      = 25

	offExternalTemperature = 26
	offExternalFlags       = 28

	offPM1_0            = 29
	offPM2_5            = 31
	offPM10             = 33
	offParticulateFlags = 35

	offUptime = 36
	offRSSI   = 40

	offChecksum = Size - 1
)

// Flag bits.
const (
	FlagPresent    byte = 1 << 0
	FlagCalibrated byte = 1 << 1
)

// Fixed-point scale factors.
const (
	scaleTemperature = 100
	scaleHumidity    = 100
	scalePressure    = 10
	scaleIAQ         = 10
	scaleBreathVOC   = 100
)
