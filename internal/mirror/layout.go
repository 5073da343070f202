// internal/mirror/layout.go
package mirror

// Status block layout constants.
// These values define the register protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of holding registers per drone.
const SlotsPerDevice = 20

// ---- LIVE SLOTS ----

const SlotBattery = 0

// SlotAltitude holds altitude in centimetres (metres x 100).
const SlotAltitude = 1

// SlotSpeed holds speed x 100.
const SlotSpeed = 2

// SlotTemperature holds temperature as int16 two's complement.
const SlotTemperature = 3

// SlotGPSLatHi and SlotGPSLatLo hold latitude x 1e6 as uint32, high word first.
const SlotGPSLatHi = 4
const SlotGPSLatLo = 5

// SlotGPSLonHi and SlotGPSLonLo hold longitude x 1e6 as uint32, high word first.
const SlotGPSLonHi = 6
const SlotGPSLonLo = 7

// SlotTimestampHi and SlotTimestampLo hold unix seconds as uint32, high word first.
const SlotTimestampHi = 8
const SlotTimestampLo = 9

// LiveSlots is the number of slots rewritten on every incremental update.
const LiveSlots = 10

// ---- RESERVED ----

const SlotReserved = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// DeviceNameMaxChars is the maximum number of ASCII characters stored for the device name.
const DeviceNameMaxChars = 16

// ---- SCALING ----

const (
	CentiScale = 100
	GPSScale   = 1_000_000
)
