// Package internal provides the clean-up engine.
//
// The engine runs a registry of rewrite rules over source units. Each rule
// contributes edit operations for one pass; the operations of every rule are
// composed into a single fix and applied. Rules that need a fresh syntax tree
// after their own edits ask for another pass, up to a fixed iteration limit.
//
// Key components:
//
// Engine: coordinates sessions, passes and batch runs. A run loads units from
// a Source, cleans them in parallel and returns a Report.
//
// Change: the cumulative result of cleaning one unit, with the fix applied at
// every pass and the deduplicated list of steps.
//
// Status: warnings and fatal conditions found before a run starts.
//
// Cache: a persistent record of units already known to be clean under a given
// option fingerprint.
//
// Usage:
//
//	engine, err := internal.NewEngine(internal.WithLogger(logger))
//	if err != nil {
//	    // handle error
//	}
//
//	report, err := engine.Run(ctx, options.Defaults(), internal.NewFileSource(), paths)
//	if err != nil {
//	    // handle error
//	}
//
//	for _, c := range report.Changed() {
//	    fmt.Printf("%s: %v\n", c.Unit.Path, c.Steps)
//	}
//
// This package is intended for internal use within the tool and should not be
// imported by external packages.
package internal
