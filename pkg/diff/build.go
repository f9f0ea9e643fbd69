package diff

import (
	"github.com/natty6418/task-flow-sub000/pkg/apperrors"
	"github.com/natty6418/task-flow-sub000/pkg/models"
)

// Thresholds holds the length gates of the diff pipeline. The two values
// are intentionally independent: storage attaches word diffs earlier than
// narration switches to compact phrasing.
type Thresholds struct {
	// StorageDiff: a word diff is stored for a string field when either
	// side is longer than this.
	StorageDiff int

	// CompactNarration: narration stops quoting string values longer
	// than this and describes the change instead.
	CompactNarration int
}

// DefaultThresholds returns the standard length gates.
func DefaultThresholds() Thresholds {
	return Thresholds{StorageDiff: 20, CompactNarration: 50}
}

// BuildDiffData turns detected changes into the storable DiffData form
// using the default thresholds.
func BuildDiffData(ch *Changes) (*models.DiffData, error) {
	return BuildDiffDataWith(ch, DefaultThresholds())
}

// BuildDiffDataWith classifies each change by presence, attaches word
// diffs for long string fields, and derives the summary. An empty change
// set returns apperrors.ErrNoChanges: the caller must skip persisting an
// activity entry entirely, an update that changes nothing leaves no trail.
func BuildDiffDataWith(ch *Changes, th Thresholds) (*models.DiffData, error) {
	if ch == nil || ch.Len() == 0 {
		return nil, apperrors.ErrNoChanges
	}

	dd := &models.DiffData{
		Changes: make(map[string]models.FieldChange, ch.Len()),
	}
	for _, field := range ch.Fields() {
		fv, _ := ch.Get(field)
		fc := models.FieldChange{
			Old:  fv.Old,
			New:  fv.New,
			Type: classify(fv),
		}
		if oldStr, ok := fv.Old.(string); ok {
			if newStr, ok := fv.New.(string); ok &&
				(len(oldStr) > th.StorageDiff || len(newStr) > th.StorageDiff) {
				fc.TextDiff = WordDiff(oldStr, newStr)
			}
		}
		dd.Changes[field] = fc
		dd.Summary.FieldsChanged = append(dd.Summary.FieldsChanged, field)
	}
	dd.Summary.ChangeCount = len(dd.Summary.FieldsChanged)
	return dd, nil
}

// classify determines the change type purely from presence of the old
// and new values, never from value semantics.
func classify(fv FieldValues) models.ChangeType {
	switch {
	case fv.Old == nil && fv.New != nil:
		return models.ChangeAdded
	case fv.Old != nil && fv.New == nil:
		return models.ChangeRemoved
	default:
		return models.ChangeModified
	}
}
