package enums

import "fmt"

// DocumentStatus is the shared lifecycle for business documents.
// Most families move DRAFT → ISSUED → CANCELLED; POS sales and purchase
// bills are born ISSUED.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "draft"
	DocumentStatusIssued    DocumentStatus = "issued"
	DocumentStatusCancelled DocumentStatus = "cancelled"
)

var validDocumentStatuses = []DocumentStatus{
	DocumentStatusDraft,
	DocumentStatusIssued,
	DocumentStatusCancelled,
}

// documentTransitions holds the allowed status moves. CANCELLED is terminal.
var documentTransitions = map[DocumentStatus][]DocumentStatus{
	DocumentStatusDraft:     {DocumentStatusIssued, DocumentStatusCancelled},
	DocumentStatusIssued:    {DocumentStatusCancelled},
	DocumentStatusCancelled: {},
}

// String implements fmt.Stringer.
func (s DocumentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DocumentStatus.
func (s DocumentStatus) IsValid() bool {
	for _, candidate := range validDocumentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransition reports whether a document may move from s to target.
func (s DocumentStatus) CanTransition(target DocumentStatus) bool {
	for _, candidate := range documentTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s DocumentStatus) IsTerminal() bool {
	return len(documentTransitions[s]) == 0
}

// ParseDocumentStatus converts raw input into a DocumentStatus.
func ParseDocumentStatus(value string) (DocumentStatus, error) {
	for _, candidate := range validDocumentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document status %q", value)
}
