// Package ocr reads text inside annotated regions using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). It is used to
// transcribe the content of an oriented box while the operator reviews it, which
// helps when labeling scene text, plates or signage.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// # Usage
//
// Read takes an in-memory image such as an upright box crop and returns the
// trimmed text, word boxes relative to that image and a mean confidence.
//
// # Preprocessing
//
// Read converts its input to grayscale with bild before recognition.
// Callers should de-rotate oriented regions first (see imaging.OrientedRegion);
// Tesseract expects roughly horizontal text lines.
//
// # Error Handling
//
// Read returns ErrEmptyRegion for a zero-area image and wrapped Tesseract errors
// for unsupported language codes or initialization failures. If word box
// extraction fails (e.g., Tesseract version mismatch), the text is still returned
// with an empty Words slice.
package ocr
