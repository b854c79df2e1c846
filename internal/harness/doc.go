// Package harness runs filter documents end to end.
//
// For every filter in a loader.Document the harness translates the
// engine filter into a storage condition, records the outcome (pushed,
// fallback or error) and, when the document carries vertex fixtures,
// scans a freshly seeded store with the condition. Results are checked
// against each filter's expect block and can be snapshotted to golden
// files.
//
// # Determinism
//
// Filters are numbered by a testutil.Sequence that restarts for every
// run, and the trace ID comes from a pluggable generator
// (testutil.FixedTraceIDs in tests). Scans return rows ordered by ID, so
// the same document always produces the same snapshot.
//
// # Fallback rows
//
// A filter that falls back pushes nothing down, so the store returns
// every vertex and the engine filters the rows itself: a structural tree
// with predicate.Match, a general expression with General.Matches. A
// vertex the general expression fails on is dropped. A scan or local
// evaluation failure is recorded on the filter and the run continues.
//
// # Usage
//
//	doc, err := loader.LoadFile("testdata/ranges.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.New().Run(ctx, doc)
//	if !result.Pass {
//	    for _, f := range result.Failures() {
//	        log.Println(f)
//	    }
//	}
package harness
