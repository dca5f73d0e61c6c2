package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteInvokeMetric records a capability invocation.
//
// This is the primary method for recording hub activity. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - hub: Name of the hub the capability was invoked on (e.g., "default")
//   - capability: Capability identifier (e.g., "feature.haptics")
//   - outcome: Invoke outcome ("ok", "error", "panic", "not_registered",
//     or "dispatched" for main-loop hand-offs)
//   - durationMS: Wall-clock invoke duration in milliseconds
//
// Example:
//
//	client.WriteInvokeMetric("default", "feature.haptics", "ok", 0.42)
func (c *Client) WriteInvokeMetric(hub, capability, outcome string, durationMS float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"capability_invoke",
		map[string]string{
			"hub":        hub,
			"capability": capability,
			"outcome":    outcome,
		},
		map[string]interface{}{
			"duration_ms": durationMS,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteHubGauge records a point-in-time gauge for a hub, such as the
// number of registered capabilities.
//
// Parameters:
//   - hub: Hub name
//   - gauge: Gauge name (e.g., "capability_count")
//   - value: Current gauge value
func (c *Client) WriteHubGauge(hub, gauge string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"hub_gauge",
		map[string]string{
			"hub":   hub,
			"gauge": gauge,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteLoopMetric records main loop activity: queue depth and the time a
// callback spent waiting before it ran.
//
// Parameters:
//   - queueDepth: Callbacks waiting in the dispatch queue
//   - waitMS: Queue wait of the most recently dispatched callback
func (c *Client) WriteLoopMetric(queueDepth int, waitMS float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"main_loop",
		nil,
		map[string]interface{}{
			"queue_depth": queueDepth,
			"wait_ms":     waitMS,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
