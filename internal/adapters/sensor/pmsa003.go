package sensor

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/NSchrading/air-qual-sensors/internal/domain"
	"github.com/NSchrading/air-qual-sensors/internal/ports"
)

// PMSA003Addr is the fixed I2C address of the Plantower PMSA003I.
const PMSA003Addr uint16 = 0x12

const pmsFrameLen = 32

// PMSA003 reads particulate matter concentrations and particle counts. The
// device exposes no data-ready flag over I2C, so every poll attempts a full
// frame read.
type PMSA003 struct {
	dev i2c.Dev
	obs ports.Observability
}

func NewPMSA003(bus i2c.Bus, obs ports.Observability) *PMSA003 {
	return &PMSA003{
		dev: i2c.Dev{Bus: bus, Addr: PMSA003Addr},
		obs: obs.Component("pmsa003"),
	}
}

func (p *PMSA003) ID() string { return "pmsa003" }

func (p *PMSA003) Fields() []domain.FieldSpec {
	return []domain.FieldSpec{
		{Field: "pm10", Metric: "sensor_pm10_ug_per_m3", Help: "PM1.0 ug/m^3"},
		{Field: "pm25", Metric: "sensor_pm25_ug_per_m3", Help: "PM2.5 ug/m^3"},
		{Field: "pm100", Metric: "sensor_pm100_ug_per_m3", Help: "PM10.0 ug/m^3"},
		{
			Field:  "particles_03um",
			Metric: "sensor_p_03_num_per_decileter",
			Help:   "Number of particles with diameter beyond 0.3 um in 0.1 L of air.",
		},
		{
			Field:  "particles_05um",
			Metric: "sensor_p_05_num_per_decileter",
			Help:   "Number of particles with diameter beyond 0.5 um in 0.1 L of air.",
		},
		{
			Field:  "particles_10um",
			Metric: "sensor_p_10_num_per_decileter",
			Help:   "Number of particles with diameter beyond 1.0 um in 0.1 L of air.",
		},
		{
			Field:  "particles_25um",
			Metric: "sensor_p_25_num_per_decileter",
			Help:   "Number of particles with diameter beyond 2.5 um in 0.1 L of air.",
		},
		{
			Field:  "particles_50um",
			Metric: "sensor_p_50_num_per_decileter",
			Help:   "Number of particles with diameter beyond 5.0 um in 0.1 L of air.",
		},
		{
			Field:  "particles_100um",
			Metric: "sensor_p_100_num_per_decileter",
			Help:   "Number of particles with diameter beyond 10.0 um in 0.1 L of air.",
		},
	}
}

// Read pulls one 32-byte frame. Header or checksum mismatches are treated
// the same as transport faults: logged, absent reading.
func (p *PMSA003) Read(ctx context.Context) (*domain.Reading, bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	var buf [pmsFrameLen]byte
	if err := p.dev.Tx(nil, buf[:]); err != nil {
		p.obs.LogError("frame read failed", err)
		return nil, false
	}

	fields, err := parsePMSFrame(buf[:])
	if err != nil {
		p.obs.LogError("frame rejected", err)
		return nil, false
	}

	return &domain.Reading{
		SensorID:  p.ID(),
		Timestamp: time.Now(),
		Fields:    fields,
	}, true
}

// parsePMSFrame validates the 0x42 0x4d start bytes and the additive
// checksum, then extracts the standard-concentration and particle-count
// words. Environmental-concentration words are skipped, matching what the
// exporter publishes.
func parsePMSFrame(buf []byte) (map[string]float64, error) {
	if len(buf) != pmsFrameLen {
		return nil, fmt.Errorf("short frame: %d bytes", len(buf))
	}
	if buf[0] != 0x42 || buf[1] != 0x4d {
		return nil, fmt.Errorf("bad frame header 0x%02x%02x", buf[0], buf[1])
	}

	var sum uint16
	for _, b := range buf[:30] {
		sum += uint16(b)
	}
	if check := binary.BigEndian.Uint16(buf[30:32]); sum != check {
		return nil, fmt.Errorf("checksum mismatch: computed 0x%04x, frame 0x%04x", sum, check)
	}

	word := func(i int) float64 {
		return float64(binary.BigEndian.Uint16(buf[4+2*i : 6+2*i]))
	}

	return map[string]float64{
		"pm10":            word(0),
		"pm25":            word(1),
		"pm100":           word(2),
		"particles_03um":  word(6),
		"particles_05um":  word(7),
		"particles_10um":  word(8),
		"particles_25um":  word(9),
		"particles_50um":  word(10),
		"particles_100um": word(11),
	}, nil
}

var _ ports.SensorSource = (*PMSA003)(nil)
