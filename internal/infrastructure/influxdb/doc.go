// Package influxdb records generation-run telemetry in InfluxDB v2.
//
// Each run of the generator writes one "irgen_runs" point:
//
//	irgen_runs,device=<device>,format=<format> generated=<n>i,skipped=<n>i,duration_ms=<ms>i
//
// Writes go through the non-blocking batched write API; Close flushes
// anything still buffered, so a one-shot CLI run loses nothing.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteRun(influxdb.Run{Device: "tv", Format: "omote", Generated: 42})
package influxdb
