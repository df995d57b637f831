package sensor

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// OpenBus initializes the host drivers and opens the named I2C bus. An empty
// name selects the first available bus. A failure here is unrecoverable
// misconfiguration and terminates the program.
//
// The SCD30 has temperamental I2C with clock stretching; the bus is run at a
// low frequency so the sensor keeps acknowledging.
func OpenBus(name string, freq physic.Frequency) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	if freq > 0 {
		if err := bus.SetSpeed(freq); err != nil {
			return nil, fmt.Errorf("set i2c bus speed: %w", err)
		}
	}
	return bus, nil
}
