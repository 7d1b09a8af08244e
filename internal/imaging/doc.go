// Package imaging loads, previews and crops the images being annotated.
//
// This package implements the pixel-level side of annotation: a decoded-image cache,
// the frame size clicks are reported against, an overlay preview of committed and
// pending boxes, and upright crops of oriented boxes. All operations work with
// standard Go image.Image types and use a coordinate system where (0,0) is at the
// top-left corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Box corners are floating-point pixel positions from the geometry package
//   - Crop rectangles are rounded to whole pixels and clipped to the image
//
// Angles follow the geometry package: degrees in [0,180), clockwise on screen.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Overlay and CropOriented
// never modify their input image and can be called concurrently.
//
// # Output Encoding
//
// Rendered images are returned base64-encoded together with their MIME type:
//   - PNG: lossless, the default
//   - WebP: lossless, or lossy when a quality in (0,100] is given
//
// # Class Colors
//
// ClassColor assigns each class index a fixed hue, so a class keeps its color across
// images and sessions without a stored palette.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Oriented regions smaller than one pixel or outside the image
//   - File I/O errors during image loading
//   - Encoding errors and unsupported output formats
package imaging
