// Package api implements the irgen HTTP API.
//
// This package provides:
//   - Single-record encoding and the protocol table
//   - Whole-file generation returning the rendered output files
//   - Read access to the command catalog, when one is configured
//   - The Prometheus scrape endpoint
//   - Middleware stack (request ID, logging, recovery, body limit)
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
