// Package variant decides which derivatives exist for a source image and
// where each one lives.
//
// Everything in this package is a pure function of a storage-relative path
// and the immutable rules built from configuration. The generation pipeline
// and the runtime reconstructor both call into it, so an address computed
// before a file is written is byte-identical to the address a template asks
// for later.
//
// # Addresses
//
// For a source "images/a/b.jpg" and spacer "@":
//
//	full size, own format   images/a/b.jpg      (the source path, verbatim)
//	full size, webp         images/a/b.webp
//	640px, webp             images/a/b@640.webp
//
// The own-format full-size address is the source path itself because the
// optimized original replaces the source file on the target disk.
package variant
