package sensor

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/physic"

	"github.com/NSchrading/air-qual-sensors/internal/adapters/observability"
)

// fakeBus is a scripted I2C bus. A write records the command word; a read
// returns the canned response for the last command.
type fakeBus struct {
	lastCmd   uint16
	responses map[uint16][]byte
	err       error
}

func (f *fakeBus) String() string                  { return "fake" }
func (f *fakeBus) SetSpeed(physic.Frequency) error { return nil }

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	if f.err != nil {
		return f.err
	}
	if len(w) >= 2 {
		f.lastCmd = binary.BigEndian.Uint16(w[:2])
	}
	if len(r) > 0 {
		copy(r, f.responses[f.lastCmd])
	}
	return nil
}

func wordResponse(v uint16) []byte {
	var w [2]byte
	binary.BigEndian.PutUint16(w[:], v)
	return []byte{w[0], w[1], sensirionCRC(w[:])}
}

func measurementResponse(co2, temp, rh float32) []byte {
	var out []byte
	for _, v := range []float32{co2, temp, rh} {
		var raw [4]byte
		binary.BigEndian.PutUint32(raw[:], math.Float32bits(v))
		out = append(out, raw[0], raw[1], sensirionCRC(raw[0:2]))
		out = append(out, raw[2], raw[3], sensirionCRC(raw[2:4]))
	}
	return out
}

func newTestSCD30(t *testing.T, bus *fakeBus) *SCD30 {
	t.Helper()
	s, err := NewSCD30(bus, SCD30Config{
		TemperatureOffsetC:  3,
		AmbientPressureMbar: 1012,
		AltitudeM:           32,
	}, observability.FromLogger(zap.NewNop()))
	if err != nil {
		t.Fatalf("new scd30: %v", err)
	}
	return s
}

func TestSensirionCRC(t *testing.T) {
	// Reference vector from the Sensirion interface description.
	if got := sensirionCRC([]byte{0xBE, 0xEF}); got != 0x92 {
		t.Fatalf("crc(0xBEEF) = 0x%02x, want 0x92", got)
	}
	if got := sensirionCRC([]byte{0x00, 0x00}); got != 0x81 {
		t.Fatalf("crc(0x0000) = 0x%02x, want 0x81", got)
	}
}

func TestSCD30ReadComplete(t *testing.T) {
	bus := &fakeBus{responses: map[uint16][]byte{
		scdCmdDataReady:       wordResponse(1),
		scdCmdReadMeasurement: measurementResponse(450, 22, 40),
	}}
	s := newTestSCD30(t, bus)

	r, ok := s.Read(context.Background())
	if !ok {
		t.Fatalf("expected a complete reading")
	}
	if r.SensorID != "scd30" {
		t.Fatalf("unexpected sensor id %q", r.SensorID)
	}
	if r.Fields["co2_ppm"] != 450 || r.Fields["temperature_c"] != 22 || r.Fields["relative_humidity_pct"] != 40 {
		t.Fatalf("unexpected fields: %v", r.Fields)
	}
}

func TestSCD30DataNotReady(t *testing.T) {
	bus := &fakeBus{responses: map[uint16][]byte{
		scdCmdDataReady: wordResponse(0),
	}}
	s := newTestSCD30(t, bus)

	if _, ok := s.Read(context.Background()); ok {
		t.Fatalf("expected absent reading while data not ready")
	}
}

func TestSCD30TransportFaultIsAbsent(t *testing.T) {
	bus := &fakeBus{responses: map[uint16][]byte{}}
	s := newTestSCD30(t, bus)

	bus.err = errors.New("i2c nack")
	if _, ok := s.Read(context.Background()); ok {
		t.Fatalf("expected absent reading on transport fault")
	}
}

func TestSCD30ReadHonorsCancelledContext(t *testing.T) {
	bus := &fakeBus{responses: map[uint16][]byte{
		scdCmdDataReady:       wordResponse(1),
		scdCmdReadMeasurement: measurementResponse(450, 22, 40),
	}}
	s := newTestSCD30(t, bus)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Cancellation surfaces in the data-ready check, before the measurement
	// command is ever issued.
	if _, ok := s.Read(ctx); ok {
		t.Fatalf("expected absent reading with a cancelled context")
	}
	if bus.lastCmd == scdCmdReadMeasurement {
		t.Fatalf("measurement read must not run after cancellation")
	}
}

func TestSCD30CorruptMeasurement(t *testing.T) {
	resp := measurementResponse(450, 22, 40)
	resp[2] ^= 0xFF // break the co2 msw crc
	bus := &fakeBus{responses: map[uint16][]byte{
		scdCmdDataReady:       wordResponse(1),
		scdCmdReadMeasurement: resp,
	}}
	s := newTestSCD30(t, bus)

	if _, ok := s.Read(context.Background()); ok {
		t.Fatalf("expected absent reading on crc mismatch")
	}
}
