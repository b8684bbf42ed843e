package mdpreview

import "errors"

// Sentinel errors for library operations.
var (
	ErrRejectedFile = errors.New("file type not accepted")
	ErrImportRead   = errors.New("failed to read imported file")
	ErrEditorClosed = errors.New("editor is closed")
	ErrUnknownBlock = errors.New("code block not found")

	// Print errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrPrinterClosed  = errors.New("printer is closed")

	// Page settings validation errors.
	ErrInvalidPageSettings = errors.New("invalid page settings")

	// Asset loading errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
