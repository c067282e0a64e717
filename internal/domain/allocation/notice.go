package allocation

import "fmt"

// Severity classifies a processing notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is a (severity, message) pair surfaced to the caller.
// Notices never abort a batch; they report what happened to each
// document and line item.
type Notice struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Infof appends an informational notice.
func (n *Notices) Infof(format string, args ...any) {
	*n = append(*n, Notice{Severity: SeverityInfo, Message: fmt.Sprintf(format, args...)})
}

// Warnf appends a warning notice.
func (n *Notices) Warnf(format string, args ...any) {
	*n = append(*n, Notice{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

// Errorf appends an error notice.
func (n *Notices) Errorf(format string, args ...any) {
	*n = append(*n, Notice{Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

// Notices is an ordered collection of processing notices.
type Notices []Notice

// HasErrors reports whether any notice is an error.
func (n Notices) HasErrors() bool {
	for _, notice := range n {
		if notice.Severity == SeverityError {
			return true
		}
	}
	return false
}
