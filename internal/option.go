package internal

import "github.com/caffeinsmuggler/timesheet-ai/internal/ocr"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	engine ocr.Engine
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithEngine overrides the OCR engine. The default is the system Tesseract.
func WithEngine(e ocr.Engine) Option {
	return func(a *application) {
		a.engine = e
	}
}
