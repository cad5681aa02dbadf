// Package generator encodes a batch of records into named IR codes.
//
// A Generator fans the records out over a bounded worker pool, applies
// the batch policy (skip failing records and log them, or abort on the
// first failure) and assigns each surviving command a unique C
// identifier. Output order always equals input order, whatever the
// worker count.
//
//	enc, _ := ir.NewEncoder(ir.Options{})
//	gen := generator.New(enc, generator.Options{Logger: log})
//	res, err := gen.Run(ctx, "SonyBravia", doc.Records)
package generator
