// Package server implements the MCP (Model Context Protocol) server for oriented
// bounding box annotation.
//
// This package provides a JSON-RPC 2.0 server that exposes an annotation workspace
// through the MCP protocol. An MCP client drives the capture loop: it opens a dataset,
// reports clicks, reviews and commits boxes, and advances through the images while
// label files are written for each one.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Dataset:
//   - annotate_open_dataset: Open an image directory, optionally resuming
//   - annotate_status: Snapshot of image, state, clicks, pending box and annotations
//   - annotate_image_info: Path, size and format of the current image
//   - annotate_next_image: Save labels and move on; unreadable images are skipped
//   - annotate_progress: Labeled images from the ledger
//
// Capture:
//   - annotate_set_frame: Set the click coordinate space
//   - annotate_click: Report a corner click
//   - annotate_set_angle, annotate_switch_angle: Edit the pending angle
//   - annotate_select_class: Choose the pending class
//   - annotate_commit, annotate_cancel: Resolve the pending box
//   - annotate_clear, annotate_remove: Edit committed boxes
//   - annotate_set_angle_mode: Rotated or axis-aligned capture
//   - labels_render: Preview the label file content
//
// Classes:
//   - classes_list, classes_add, classes_remove, classes_move
//   - classes_load, classes_save: YAML manifests
//
// Rendering:
//   - annotate_preview: Image with boxes drawn on top
//   - annotate_crop_pending: Upright crop of the pending box
//   - annotate_ocr_pending: OCR of the pending box
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	ws := workspace.New(workspace.Options{Logger: logger})
//	srv := server.New(ws, server.Options{Logger: logger})
//	if err := srv.Run(ctx); err != nil {
//	    logger.Error("server error", "error", err)
//	}
package server
