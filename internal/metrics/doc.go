// Package metrics exports encoder and run counters in Prometheus format.
//
// A Metrics value owns its registry, so several can coexist in one
// process (tests, or a server next to one-shot CLI runs). It implements
// generator.Observer and is handed to the generator directly. The
// counters are exposed either over HTTP through Handler or, for
// one-shot runs, written to a node_exporter textfile.
package metrics
