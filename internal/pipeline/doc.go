// Package pipeline generates every derivative of every eligible source
// image and records the results in a ledger.
//
// # Run
//
// A run lists the source directory, keeps the files the classifier accepts
// and fans them out over a bounded worker pool. One worker owns one source
// from start to finish:
//
//  1. create a private work area (removed on every exit path)
//  2. read and decode the original once
//  3. optimize the original bytes and store them at the source's own path
//  4. store a resized copy of the original for every breakpoint that fits
//  5. for every target format, store the full-size conversion and then one
//     resized conversion per breakpoint that fits
//
// Every derivative step returns an Outcome. Failed outcomes are recorded in
// the ledger and the worker moves on to the next derivative; only a failure
// to read or decode the original abandons the source.
//
// # Fatal errors
//
// Run fails with ErrEnumerate when the source directory cannot be listed and
// with ErrLedgerWrite when the ledger cannot be stored. In both cases the
// ledger is still returned so the caller can report the counts gathered.
//
// # Cancellation
//
// The context is checked before each source starts. A source already in
// progress finishes its current derivative, cleans up its work area, and the
// run returns the context's error without writing the ledger.
package pipeline
