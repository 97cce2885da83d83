// Package ocr defines the recognition contract used by the ingest pipeline
// and provides a Tesseract-backed implementation.
package ocr

import (
	"context"

	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
)

// Input encapsulates a single image submitted for recognition.
type Input struct {
	// ID is an optional caller-provided identifier echoed back in the Result.
	ID string
	// Image is the encoded image payload (PNG or JPEG).
	Image []byte
	// Languages lists trained-data hints (e.g., "kor").
	Languages []string
	// DPI carries the effective dots-per-inch; zero means unknown.
	DPI int
	// Metadata passes engine-specific knobs (e.g., "tessedit_pageseg_mode")
	// without hard-coding them into the API surface.
	Metadata map[string]string
}

// Result captures recognition output for a single input image.
type Result struct {
	// InputID mirrors the Input.ID that produced this result.
	InputID string
	// PlainText is the linearized text extracted from the image.
	PlainText string
	// Blocks carries line-level text with positional metadata. An empty
	// slice is a valid result for an image with no recognizable text.
	Blocks []models.Block
}

// Engine is the recognition provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}
