package ports

import (
	"context"

	"github.com/NSchrading/air-qual-sensors/internal/domain"
)

// SensorSource wraps one physical sensor.
//
// Read returns (reading, true) when the device produced a complete fresh
// reading, and (nil, false) when no new reading is available, either because
// the hardware has not refreshed since the previous poll or because a
// transient transport fault occurred. Transport faults are logged by the
// adapter and never propagated; the caller's fixed polling cadence is the
// retry mechanism.
type SensorSource interface {
	ID() string
	Fields() []domain.FieldSpec
	Read(ctx context.Context) (*domain.Reading, bool)
}
