package sensor

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/NSchrading/air-qual-sensors/internal/domain"
	"github.com/NSchrading/air-qual-sensors/internal/ports"
)

// SCD30Addr is the fixed I2C address of the Sensirion SCD30.
const SCD30Addr uint16 = 0x61

// SCD30 command words.
const (
	scdCmdStartContinuous    = 0x0010
	scdCmdMeasureInterval    = 0x4600
	scdCmdDataReady          = 0x0202
	scdCmdReadMeasurement    = 0x0300
	scdCmdSelfCalibration    = 0x5306
	scdCmdTemperatureOffset  = 0x5403
	scdCmdAltitudeCompensate = 0x5102
)

// Delay between issuing a read command and clocking the response out. The
// sensor NAKs if the response is read back too quickly.
const scdReadDelay = 4 * time.Millisecond

// SCD30Config carries the calibration settings applied once at startup.
type SCD30Config struct {
	TemperatureOffsetC  float64 `yaml:"temperature_offset_c"`
	AmbientPressureMbar uint16  `yaml:"ambient_pressure_mbar"`
	AltitudeM           uint16  `yaml:"altitude_m"`
	MeasureIntervalS    uint16  `yaml:"measure_interval_s"`
}

// SCD30 reads CO2 ppm, temperature and relative humidity over I2C. The
// sensor's measurement interval is two seconds or more, so every poll first
// checks the data-ready word to avoid republishing stale values.
type SCD30 struct {
	dev i2c.Dev
	obs ports.Observability
}

// NewSCD30 configures the sensor and starts continuous measurement.
func NewSCD30(bus i2c.Bus, cfg SCD30Config, obs ports.Observability) (*SCD30, error) {
	s := &SCD30{
		dev: i2c.Dev{Bus: bus, Addr: SCD30Addr},
		obs: obs.Component("scd30"),
	}
	if err := s.configure(cfg); err != nil {
		return nil, fmt.Errorf("configure scd30: %w", err)
	}
	return s, nil
}

func (s *SCD30) configure(cfg SCD30Config) error {
	interval := cfg.MeasureIntervalS
	if interval == 0 {
		interval = 2
	}
	if err := s.writeCommand(scdCmdMeasureInterval, &interval); err != nil {
		return err
	}

	// The offset register holds hundredths of a degree.
	offset := uint16(math.Round(cfg.TemperatureOffsetC * 100))
	if err := s.writeCommand(scdCmdTemperatureOffset, &offset); err != nil {
		return err
	}
	s.obs.LogDebug("temperature offset applied",
		ports.Field{Key: "offset_c", Value: cfg.TemperatureOffsetC})

	if err := s.writeCommand(scdCmdAltitudeCompensate, &cfg.AltitudeM); err != nil {
		return err
	}
	s.obs.LogDebug("altitude compensation applied",
		ports.Field{Key: "altitude_m", Value: cfg.AltitudeM})

	// Starting continuous measurement takes the ambient pressure in mbar as
	// its argument; zero disables pressure compensation.
	if err := s.writeCommand(scdCmdStartContinuous, &cfg.AmbientPressureMbar); err != nil {
		return err
	}
	s.obs.LogDebug("continuous measurement started",
		ports.Field{Key: "ambient_pressure_mbar", Value: cfg.AmbientPressureMbar})

	if v, err := s.readWord(context.Background(), scdCmdMeasureInterval); err == nil {
		s.obs.LogDebug("measurement interval", ports.Field{Key: "seconds", Value: v})
	}
	if v, err := s.readWord(context.Background(), scdCmdSelfCalibration); err == nil {
		s.obs.LogDebug("self-calibration enabled", ports.Field{Key: "enabled", Value: v == 1})
	}
	return nil
}

func (s *SCD30) ID() string { return "scd30" }

func (s *SCD30) Fields() []domain.FieldSpec {
	return []domain.FieldSpec{
		{
			Field:  "co2_ppm",
			Metric: "sensor_co2_ppm",
			Help:   "CO2 PPM at a point in time.",
		},
		{
			Field:   "temperature_c",
			Metric:  "sensor_temperature_f",
			Help:    "Temperature in Fahrenheit at a point in time.",
			Convert: domain.CelsiusToFahrenheit,
		},
		{
			Field:  "relative_humidity_pct",
			Metric: "sensor_relative_humidity_percent",
			Help:   "Relative humidity percent at a point in time.",
		},
	}
}

// Read checks the data-ready word and, when fresh data is present, reads one
// complete measurement. Any transport fault or CRC mismatch yields an absent
// reading; the next poll retries.
func (s *SCD30) Read(ctx context.Context) (*domain.Reading, bool) {
	ready, err := s.readWord(ctx, scdCmdDataReady)
	if err != nil {
		s.obs.LogError("data-ready check failed", err)
		return nil, false
	}
	if ready != 1 {
		s.obs.LogDebug("no fresh measurement available")
		return nil, false
	}

	buf, err := s.readResponse(ctx, scdCmdReadMeasurement, 18)
	if err != nil {
		s.obs.LogError("measurement read failed", err)
		return nil, false
	}

	co2, err := scdFloat(buf[0:6])
	if err != nil {
		s.obs.LogError("co2 word corrupt", err)
		return nil, false
	}
	temp, err := scdFloat(buf[6:12])
	if err != nil {
		s.obs.LogError("temperature word corrupt", err)
		return nil, false
	}
	rh, err := scdFloat(buf[12:18])
	if err != nil {
		s.obs.LogError("humidity word corrupt", err)
		return nil, false
	}

	return &domain.Reading{
		SensorID:  s.ID(),
		Timestamp: time.Now(),
		Fields: map[string]float64{
			"co2_ppm":               co2,
			"temperature_c":         temp,
			"relative_humidity_pct": rh,
		},
	}, true
}

// writeCommand sends a 16-bit command word, optionally followed by one
// CRC-protected argument word.
func (s *SCD30) writeCommand(cmd uint16, arg *uint16) error {
	buf := []byte{byte(cmd >> 8), byte(cmd)}
	if arg != nil {
		var w [2]byte
		binary.BigEndian.PutUint16(w[:], *arg)
		buf = append(buf, w[0], w[1], sensirionCRC(w[:]))
	}
	if err := s.dev.Tx(buf, nil); err != nil {
		return fmt.Errorf("command 0x%04x: %w", cmd, err)
	}
	return nil
}

func (s *SCD30) readWord(ctx context.Context, cmd uint16) (uint16, error) {
	buf, err := s.readResponse(ctx, cmd, 3)
	if err != nil {
		return 0, err
	}
	if sensirionCRC(buf[0:2]) != buf[2] {
		return 0, fmt.Errorf("command 0x%04x: response crc mismatch", cmd)
	}
	return binary.BigEndian.Uint16(buf[0:2]), nil
}

func (s *SCD30) readResponse(ctx context.Context, cmd uint16, n int) ([]byte, error) {
	if err := s.writeCommand(cmd, nil); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(scdReadDelay):
	}
	buf := make([]byte, n)
	if err := s.dev.Tx(nil, buf); err != nil {
		return nil, fmt.Errorf("command 0x%04x response: %w", cmd, err)
	}
	return buf, nil
}

// scdFloat decodes one float32 transmitted as two CRC-protected words.
func scdFloat(b []byte) (float64, error) {
	if sensirionCRC(b[0:2]) != b[2] || sensirionCRC(b[3:5]) != b[5] {
		return 0, fmt.Errorf("crc mismatch")
	}
	bits := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[3])<<8 | uint32(b[4])
	return float64(math.Float32frombits(bits)), nil
}

// sensirionCRC computes the CRC-8 (poly 0x31, init 0xFF) Sensirion sensors
// append to every data word.
func sensirionCRC(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

var _ ports.SensorSource = (*SCD30)(nil)
