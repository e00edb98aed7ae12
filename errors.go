package tutorchat

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyFeedback  = errors.New("feedback content cannot be empty")
	ErrMarkupParse    = errors.New("markup parsing failed")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// Pool errors.
	ErrPoolClosed = errors.New("export pool is closed")
)
