package domain

// ExportFormat is a downloadable rendering of a generated quiz or schedule.
type ExportFormat string

const (
	ExportFormatNone ExportFormat = ""
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat validates a user-supplied format string.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case ExportFormatNone, ExportFormatCSV, ExportFormatXLSX:
		return ExportFormat(s), nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Usage function names recorded in ai_usage.
const (
	FunctionChat     = "ai_chat"
	FunctionQuiz     = "quiz_gen"
	FunctionSchedule = "schedule_gen"
)
