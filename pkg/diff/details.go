package diff

import "github.com/natty6418/task-flow-sub000/pkg/models"

// DiffDetails is the read-shaping view over a stored diff served to
// callers rendering change detail.
type DiffDetails struct {
	Summary       string                        `json:"summary"`
	Changes       map[string]models.FieldChange `json:"changes"`
	Processed     map[string]models.NameChange  `json:"processed,omitempty"`
	HasTextDiffs  bool                          `json:"has_text_diffs"`
	ChangeCount   int                           `json:"change_count"`
	FieldsChanged []string                      `json:"fields_changed"`
}

// Details builds the detail view for a stored diff. A nil or malformed
// diff returns nil so historic entries stay listable even when their
// payload cannot be reconstructed; callers render reduced detail.
func Details(dd *models.DiffData) *DiffDetails {
	if !dd.Valid() {
		return nil
	}
	return &DiffDetails{
		Summary:       RegenerateSummary(dd),
		Changes:       dd.Changes,
		Processed:     dd.Processed,
		HasTextDiffs:  dd.HasTextDiffs(),
		ChangeCount:   dd.Summary.ChangeCount,
		FieldsChanged: dd.Summary.FieldsChanged,
	}
}

// TextDiffForField returns the stored word-diff parts for one field, or
// nil when the diff is absent, malformed, or the field has no text diff.
func TextDiffForField(dd *models.DiffData, field string) []models.TextDiffPart {
	if !dd.Valid() {
		return nil
	}
	fc, ok := dd.Changes[field]
	if !ok {
		return nil
	}
	return fc.TextDiff
}

// RegenerateSummary re-runs the field-fragment rules (not the headline
// rules) over a stored diff, so historic entries can be re-rendered when
// display vocabulary changes without recomputing the original diff.
func RegenerateSummary(dd *models.DiffData) string {
	if !dd.Valid() {
		return ""
	}
	return NewNarrator(DefaultThresholds()).Fragments(dd)
}
