// Package server implements the MCP (Model Context Protocol) server exposing
// the responsive image reconstructor.
//
// This package provides a JSON-RPC 2.0 server that lets MCP-compatible
// clients ask which derivatives exist for a source image and what markup
// references them, without running a generation pass.
//
// # Protocol
//
// Requests arrive on stdin one per line and responses are written to stdout
// in the same order. Logging goes to stderr.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Addressing (pure, no storage access):
//   - image_plan: Every derivative a template may reference, with URLs
//   - image_srcset: srcset attribute value for one format
//   - image_css_variables: CSS custom properties for background images
//   - image_picture: Full <picture> markup
//   - image_classify: Whether a path is eligible and what it converts to
//
// Local files:
//   - image_info: Dimensions, format, placeholder colour and the breakpoints
//     a generation run would produce for a local image
//
// # Image Caching
//
// Decoded images are kept in an LRU cache keyed by path and reused while the
// file is unchanged. Reconstructor output is memoized in a second LRU.
//
// # Error Handling
//
// Failures come back as JSON-RPC errors carrying the Go error string in
// data: -32700 for a line that is not JSON, -32601 for an unknown method,
// -32602 for malformed tool arguments and -32000 when a tool fails.
// Notifications, including unknown ones, are never answered.
//
// # Usage
//
//	srv, err := server.New(cfg, server.Options{Version: version})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
