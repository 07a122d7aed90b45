package cli

import "fmt"

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Layout input scan error
	ErrCodeNoFiles     = "E003" // No layout files found
	ErrCodeRuleDeck    = "E004" // Rule deck could not be parsed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeConfig      = "E006" // Config file invalid
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E008" // Result store error
	ErrCodeScenario    = "E009" // Scenario file invalid

	// Run errors
	ErrCodeNoUsableInput = "E101" // No layout cell could be validated
	ErrCodeCancelled     = "E102" // Run interrupted
)

// commandError reports a command error through the formatter and returns
// the matching ExitError.
func commandError(f *OutputFormatter, code, message string, err error) error {
	var details interface{}
	if err != nil {
		details = err.Error()
	}
	_ = f.Error(code, message, details)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), err)
}
