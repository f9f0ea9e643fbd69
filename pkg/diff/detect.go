package diff

import (
	"time"

	"github.com/natty6418/task-flow-sub000/pkg/models"
)

// FieldKind categorizes a field for comparison and rendering. Each kind
// has one equality rule and one narration style, checked here rather than
// dispatched ad hoc on field names at every call site.
type FieldKind int

const (
	KindText FieldKind = iota
	KindEnum
	KindDate
	KindReference
)

// fieldKinds is the registry mapping field names to their kind. Fields
// not listed default to KindText.
var fieldKinds = map[string]FieldKind{
	models.FieldTitle:       KindText,
	models.FieldName:        KindText,
	models.FieldDescription: KindText,
	models.FieldStatus:      KindEnum,
	models.FieldPriority:    KindEnum,
	models.FieldDueDate:     KindDate,
	models.FieldAssignedTo:  KindReference,
	models.FieldBoard:       KindReference,
}

// KindOf returns the registered kind for a field name.
func KindOf(field string) FieldKind {
	if k, ok := fieldKinds[field]; ok {
		return k
	}
	return KindText
}

// FieldValues is one field's raw before/after pair as produced by the
// detector, prior to classification.
type FieldValues struct {
	Old any
	New any
}

// Changes is an ordered collection of raw field transitions. Order
// follows the field list given to DetectChanges and determines the
// fields_changed ordering of the built diff.
type Changes struct {
	order  []string
	values map[string]FieldValues
}

// Fields returns the changed field names in detection order.
func (c *Changes) Fields() []string { return c.order }

// Get returns the raw values for a changed field.
func (c *Changes) Get(field string) (FieldValues, bool) {
	fv, ok := c.values[field]
	return fv, ok
}

// Len returns the number of changed fields.
func (c *Changes) Len() int { return len(c.order) }

func (c *Changes) add(field string, fv FieldValues) {
	c.order = append(c.order, field)
	c.values[field] = fv
}

// DetectChanges compares two record snapshots across the given ordered
// field set and returns the fields whose values differ. Date fields are
// compared by resolved instant, so re-serializing the same moment is not
// a change; nil versus a present date is. Neither snapshot is mutated.
func DetectChanges(oldRec, newRec map[string]any, fields []string) *Changes {
	ch := &Changes{values: make(map[string]FieldValues)}
	for _, field := range fields {
		ov := oldRec[field]
		nv := newRec[field]
		if equalValues(KindOf(field), ov, nv) {
			continue
		}
		ch.add(field, FieldValues{Old: ov, New: nv})
	}
	return ch
}

// equalValues applies the per-kind equality rule. Snapshot values are
// strings, times, or nil, so direct comparison is safe for the non-date
// kinds.
func equalValues(kind FieldKind, old, new any) bool {
	if kind == KindDate {
		return equalDates(old, new)
	}
	if old == nil || new == nil {
		return old == nil && new == nil
	}
	return old == new
}

// equalDates compares two date values by instant. Values that cannot be
// interpreted as times fall back to direct comparison, so malformed
// representations still register as a change rather than being dropped.
func equalDates(old, new any) bool {
	if old == nil || new == nil {
		return old == nil && new == nil
	}
	ot, ook := toTime(old)
	nt, nok := toTime(new)
	if ook && nok {
		return ot.Equal(nt)
	}
	return old == new
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

// toTime interprets a snapshot or stored-JSON value as a time instant.
func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}
