// Runs the agent with a simulated CO2 sensor instead of real hardware, so the
// exporter and supervision paths can be exercised on any machine.
package main

import (
	"context"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	airqual "github.com/NSchrading/air-qual-sensors"
)

type simulatedSCD struct{}

func (simulatedSCD) ID() string { return "scd30-sim" }

func (simulatedSCD) Fields() []airqual.FieldSpec {
	return []airqual.FieldSpec{
		{Field: "co2_ppm", Metric: "sensor_co2_ppm", Help: "CO2 PPM at a point in time."},
		{Field: "temperature_c", Metric: "sensor_temperature_f", Help: "Temperature in Fahrenheit at a point in time.", Convert: airqual.CelsiusToFahrenheit},
		{Field: "relative_humidity_pct", Metric: "sensor_relative_humidity_percent", Help: "Relative humidity percent at a point in time."},
	}
}

func (simulatedSCD) Read(ctx context.Context) (*airqual.Reading, bool) {
	return &airqual.Reading{
		SensorID:  "scd30-sim",
		Timestamp: time.Now(),
		Fields: map[string]float64{
			"co2_ppm":               420 + rand.Float64()*80,
			"temperature_c":         21 + rand.Float64()*2,
			"relative_humidity_pct": 35 + rand.Float64()*10,
		},
	}, true
}

func main() {
	cfg := &airqual.Config{}

	rt, err := airqual.New(cfg, airqual.WithSensors(simulatedSCD{}))
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil {
		log.Fatalf("agent exited: %v", err)
	}
}
