package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementRuns is the measurement written once per generation run.
const MeasurementRuns = "irgen_runs"

// Run summarises one generation run.
type Run struct {
	Device    string
	Format    string
	Generated int
	Skipped   int
	Duration  time.Duration

	// At is the point timestamp. Zero means now.
	At time.Time
}

// Point converts r to an InfluxDB point.
func (r Run) Point() *write.Point {
	at := r.At
	if at.IsZero() {
		at = time.Now()
	}
	return write.NewPoint(
		MeasurementRuns,
		map[string]string{
			"device": r.Device,
			"format": r.Format,
		},
		map[string]interface{}{
			"generated":   r.Generated,
			"skipped":     r.Skipped,
			"duration_ms": r.Duration.Milliseconds(),
		},
		at,
	)
}

// WriteRun queues a run point. The write is non-blocking; a disconnected
// client drops it.
func (c *Client) WriteRun(r Run) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(r.Point())
}
