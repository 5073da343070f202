// internal/mirror/encode.go
package mirror

import (
	"math"
	"strings"

	"github.com/tamzrod/drone-streamer/internal/telemetry"
)

// EncodeLive converts a record into the live part of the status block
// (slots 0..LiveSlots-1). No IO. No side effects.
func EncodeLive(r telemetry.StatusRecord) []uint16 {
	regs := make([]uint16, LiveSlots)

	regs[SlotBattery] = clampU16(float64(r.Battery))
	regs[SlotAltitude] = clampU16(math.Round(r.Altitude * CentiScale))
	regs[SlotSpeed] = clampU16(math.Round(r.Speed * CentiScale))
	regs[SlotTemperature] = uint16(int16(r.Temperature))

	putU32(regs[SlotGPSLatHi:], uint32(math.Round(r.GPSLat*GPSScale)))
	putU32(regs[SlotGPSLonHi:], uint32(math.Round(r.GPSLon*GPSScale)))
	putU32(regs[SlotTimestampHi:], uint32(r.Timestamp))

	return regs
}

// DecodeLive is the inverse of EncodeLive, used by consumers and tests.
func DecodeLive(regs []uint16) telemetry.StatusRecord {
	if len(regs) < LiveSlots {
		return telemetry.StatusRecord{}
	}
	return telemetry.StatusRecord{
		Battery:     int(regs[SlotBattery]),
		Altitude:    float64(regs[SlotAltitude]) / CentiScale,
		Speed:       float64(regs[SlotSpeed]) / CentiScale,
		Temperature: int(int16(regs[SlotTemperature])),
		GPSLat:      float64(getU32(regs[SlotGPSLatHi:])) / GPSScale,
		GPSLon:      float64(getU32(regs[SlotGPSLonHi:])) / GPSScale,
		Timestamp:   int64(getU32(regs[SlotTimestampHi:])),
	}
}

// EncodeFull converts a record and device name into the whole status block
// (SlotsPerDevice registers). Reserved slots stay zero.
func EncodeFull(r telemetry.StatusRecord, deviceName string) []uint16 {
	regs := make([]uint16, SlotsPerDevice)
	copy(regs, EncodeLive(r))
	putDeviceName(regs[SlotDeviceNameStart:SlotDeviceNameEnd+1], deviceName)
	return regs
}

// DecodeDeviceName reads the name slots of a full block, trailing NULs dropped.
func DecodeDeviceName(block []uint16) string {
	if len(block) <= SlotDeviceNameEnd {
		return ""
	}
	b := make([]byte, 0, DeviceNameMaxChars)
	for _, reg := range block[SlotDeviceNameStart : SlotDeviceNameEnd+1] {
		b = append(b, byte(reg>>8), byte(reg))
	}
	return strings.TrimRight(string(b), "\x00")
}

// putDeviceName stores name as ASCII pairs, high byte first.
// Bytes outside printable ASCII become '?'. Anything past len(dst)*2 is cut.
func putDeviceName(dst []uint16, name string) {
	for i := range dst {
		dst[i] = uint16(nameByte(name, 2*i))<<8 | uint16(nameByte(name, 2*i+1))
	}
}

func nameByte(name string, i int) byte {
	if i >= len(name) {
		return 0
	}
	if c := name[i]; c >= 0x20 && c <= 0x7E {
		return c
	}
	return '?'
}

func clampU16(v float64) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}

func putU32(dst []uint16, v uint32) {
	dst[0] = uint16(v >> 16)
	dst[1] = uint16(v)
}

func getU32(src []uint16) uint32 {
	return uint32(src[0])<<16 | uint32(src[1])
}
