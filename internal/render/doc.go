// Package render reconstructs derivative URLs for templates.
//
// A Reconstructor is built from the same configuration as the generation
// pipeline and shares its variant.Rules, so every URL it emits names a file
// a completed run has stored. It never touches storage: each call is string
// assembly over the source path and configuration, cheap enough to run per
// request.
//
// # Base URL
//
// URLs are rooted at the target disk's URL when responsive images are
// enabled, and at the source disk's URL otherwise. Construction fails with
// ErrDiskURLMissing when the chosen disk has no URL.
//
// # Output
//
//   - Srcset: "{base}/a@320.webp 320w, {base}/a@640.webp 640w, {base}/a.webp 1200w"
//   - CSSVariables: "--webp-full:url({base}/a.webp);--webp-320:url({base}/a@320.webp);"
//   - Picture: a <picture> element with one <source> per target format
package render
