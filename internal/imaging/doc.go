// Package imaging is the image engine behind derivative generation.
//
// It decodes originals, resizes them, encodes them into every target format
// and squeezes the encoded bytes with a best-effort optimizer. All
// operations work with standard Go image.Image values and encoded []byte
// buffers. Only ImageCache reads files, and it never writes.
//
// # Formats
//
// Decoding recognizes JPEG, PNG, GIF, TIFF, BMP, WebP and AVIF. Encoding
// supports the same set, keyed by file extension:
//   - jpg, jpeg, pjpg: baseline JPEG at the configured quality
//   - png: lossless PNG
//   - gif: 256-colour GIF
//   - tiff, bmp: lossless
//   - webp, avif: lossy at the configured quality
//
// Any other format fails with an error wrapping ErrUnsupportedFormat.
//
// # Orientation
//
// JPEG EXIF orientation is applied on decode, so every derivative and the
// optimized original are stored upright without relying on metadata.
//
// # Thread Safety
//
// Codec and Squeezer hold only immutable settings and are safe for
// concurrent use. ImageCache is safe for concurrent use.
package imaging
