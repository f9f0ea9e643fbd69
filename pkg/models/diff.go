package models

// Field names used as keys in stored diffs. Stored entries reference
// these names forever, so they must stay stable across releases.
const (
	FieldTitle       = "title"
	FieldName        = "name"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldPriority    = "priority"
	FieldDueDate     = "due_date"
	FieldAssignedTo  = "assigned_to_id"
	FieldBoard       = "board_id"
)

// ChangeType classifies a field transition by presence of the old and
// new values, never by value semantics.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// TextDiffPart is one segment of a word-level text diff. A part with
// neither flag set is common to both sides.
type TextDiffPart struct {
	Value   string `json:"value"`
	Added   bool   `json:"added,omitempty"`
	Removed bool   `json:"removed,omitempty"`
}

// FieldChange records one field's transition inside a stored diff.
// Old and New are arbitrary JSON-serializable values; after a round trip
// through storage their concrete Go types may differ from the originals
// (e.g. time.Time becomes an RFC 3339 string).
type FieldChange struct {
	Old      any            `json:"old"`
	New      any            `json:"new"`
	Type     ChangeType     `json:"type"`
	TextDiff []TextDiffPart `json:"text_diff,omitempty"`
}

// DiffSummary is the derived count-and-field-list view of a diff.
type DiffSummary struct {
	FieldsChanged []string `json:"fields_changed"`
	ChangeCount   int      `json:"change_count"`
}

// NameChange holds resolved display names for one foreign-key field.
// A nil side means the id was absent on that side of the transition.
type NameChange struct {
	Old *string `json:"old"`
	New *string `json:"new"`
}

// DiffData is the structured, storable representation of one record
// update. It is immutable once persisted; readers re-derive summaries
// and detail views from it without recomputing the diff.
//
// Processed carries display names resolved for foreign-key fields at
// build time. Raw ids stay in Changes so the id trail survives later
// renames or deletions of the referenced records.
type DiffData struct {
	Changes   map[string]FieldChange `json:"changes"`
	Summary   DiffSummary            `json:"summary"`
	Processed map[string]NameChange  `json:"processed,omitempty"`
}

// Valid reports whether the diff satisfies its structural invariants:
// every key in Changes appears in Summary.FieldsChanged exactly once and
// vice versa, and ChangeCount matches. Stored blobs from a future schema
// version may fail this; readers degrade rather than error.
func (d *DiffData) Valid() bool {
	if d == nil {
		return false
	}
	if d.Summary.ChangeCount != len(d.Summary.FieldsChanged) ||
		d.Summary.ChangeCount != len(d.Changes) {
		return false
	}
	seen := make(map[string]bool, len(d.Summary.FieldsChanged))
	for _, f := range d.Summary.FieldsChanged {
		if seen[f] {
			return false
		}
		seen[f] = true
		if _, ok := d.Changes[f]; !ok {
			return false
		}
	}
	return true
}

// HasTextDiffs reports whether any field carries a word-level text diff.
func (d *DiffData) HasTextDiffs() bool {
	if d == nil {
		return false
	}
	for _, fc := range d.Changes {
		if len(fc.TextDiff) > 0 {
			return true
		}
	}
	return false
}
