package diff

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/natty6418/task-flow-sub000/pkg/jsonutil"
	"github.com/natty6418/task-flow-sub000/pkg/models"
)

// Narrator renders stored diffs into short human-readable sentences, one
// fragment per changed field, with a headline chosen by how many fields
// changed. It is stateless apart from its thresholds and safe for
// concurrent use.
type Narrator struct {
	th Thresholds
}

// NewNarrator creates a Narrator with the given thresholds.
func NewNarrator(th Thresholds) *Narrator {
	return &Narrator{th: th}
}

// Message renders the full stored message: headline, then the per-field
// fragments joined with ", ". When the sole change is a rename, the
// headline already states old and new, so the fragment is omitted.
func (n *Narrator) Message(entityKind, entityName string, dd *models.DiffData) string {
	if !dd.Valid() {
		return ""
	}
	headline := n.Headline(entityKind, entityName, dd)
	if soleRename(dd) {
		return headline
	}
	return headline + ": " + n.Fragments(dd)
}

// Headline selects the lead phrase by change count: one change names the
// field, two or three get a combined phrase for known pairings, more get
// a count.
func (n *Narrator) Headline(entityKind, entityName string, dd *models.DiffData) string {
	count := dd.Summary.ChangeCount
	switch {
	case count == 1:
		field := dd.Summary.FieldsChanged[0]
		fc := dd.Changes[field]
		if isNameField(field) && fc.Type == models.ChangeModified {
			return fmt.Sprintf("Renamed %s from %q to %q",
				entityKind, jsonutil.Stringify(fc.Old), jsonutil.Stringify(fc.New))
		}
		return fmt.Sprintf("Changed %s of %s %q", fieldLabel(field), entityKind, entityName)
	case count <= 3:
		changed := make(map[string]bool, count)
		for _, f := range dd.Summary.FieldsChanged {
			changed[f] = true
		}
		if count == 2 && changed[models.FieldStatus] && changed[models.FieldAssignedTo] {
			return fmt.Sprintf("Updated status and assignment of %s %q", entityKind, entityName)
		}
		if count == 2 && changed[models.FieldPriority] && changed[models.FieldDueDate] {
			return fmt.Sprintf("Updated priority and due date of %s %q", entityKind, entityName)
		}
		return fmt.Sprintf("Updated multiple fields of %s %q", entityKind, entityName)
	default:
		return fmt.Sprintf("Made %d changes to %s %q", count, entityKind, entityName)
	}
}

// Fragments renders one sentence fragment per changed field, in stored
// order, joined with ", ".
func (n *Narrator) Fragments(dd *models.DiffData) string {
	fragments := make([]string, 0, len(dd.Summary.FieldsChanged))
	for _, field := range dd.Summary.FieldsChanged {
		fc, ok := dd.Changes[field]
		if !ok {
			continue
		}
		var nc *models.NameChange
		if resolved, ok := dd.Processed[field]; ok {
			nc = &resolved
		}
		fragments = append(fragments, n.fragment(field, fc, nc))
	}
	return strings.Join(fragments, ", ")
}

// fragmentFunc renders one field's change. nc carries resolved display
// names for foreign-key fields, nil otherwise.
type fragmentFunc func(n *Narrator, field string, fc models.FieldChange, nc *models.NameChange) string

// fragmentRules maps field names to their sentence grammar. Fields not
// listed fall back to the generic rule.
var fragmentRules = map[string]fragmentFunc{
	models.FieldTitle:       renameFragment,
	models.FieldName:        renameFragment,
	models.FieldDescription: descriptionFragment,
	models.FieldStatus:      statusFragment,
	models.FieldPriority:    priorityFragment,
	models.FieldDueDate:     dueDateFragment,
	models.FieldAssignedTo:  assignmentFragment,
	models.FieldBoard:       boardFragment,
}

func (n *Narrator) fragment(field string, fc models.FieldChange, nc *models.NameChange) string {
	if rule, ok := fragmentRules[field]; ok {
		return rule(n, field, fc, nc)
	}
	return genericFragment(n, field, fc, nc)
}

func renameFragment(n *Narrator, field string, fc models.FieldChange, _ *models.NameChange) string {
	label := fieldLabel(field)
	switch fc.Type {
	case models.ChangeAdded:
		return fmt.Sprintf("set %s to %q", label, jsonutil.Stringify(fc.New))
	case models.ChangeRemoved:
		return fmt.Sprintf("removed %s", label)
	default:
		return fmt.Sprintf("renamed from %q to %q",
			jsonutil.Stringify(fc.Old), jsonutil.Stringify(fc.New))
	}
}

func descriptionFragment(n *Narrator, field string, fc models.FieldChange, _ *models.NameChange) string {
	oldStr := jsonutil.Stringify(fc.Old)
	newStr := jsonutil.Stringify(fc.New)
	label := fieldLabel(field)

	// Long text is never quoted in the sentence.
	if len(oldStr) > n.th.CompactNarration || len(newStr) > n.th.CompactNarration {
		switch fc.Type {
		case models.ChangeAdded:
			return "added " + label
		case models.ChangeRemoved:
			return "removed " + label
		default:
			return "updated " + label
		}
	}
	switch fc.Type {
	case models.ChangeAdded:
		return fmt.Sprintf("set %s to %q", label, newStr)
	case models.ChangeRemoved:
		return fmt.Sprintf("removed %s %q", label, oldStr)
	default:
		return fmt.Sprintf("changed %s from %q to %q", label, oldStr, newStr)
	}
}

func statusFragment(_ *Narrator, _ string, fc models.FieldChange, _ *models.NameChange) string {
	switch fc.Type {
	case models.ChangeAdded:
		return "set status to " + StatusLabel(jsonutil.Stringify(fc.New))
	case models.ChangeRemoved:
		return "cleared status"
	default:
		return fmt.Sprintf("changed status from %s to %s",
			StatusLabel(jsonutil.Stringify(fc.Old)), StatusLabel(jsonutil.Stringify(fc.New)))
	}
}

func priorityFragment(_ *Narrator, _ string, fc models.FieldChange, _ *models.NameChange) string {
	switch fc.Type {
	case models.ChangeAdded:
		return "set priority to " + PriorityLabel(jsonutil.Stringify(fc.New))
	case models.ChangeRemoved:
		return "cleared priority"
	default:
		return fmt.Sprintf("changed priority from %s to %s",
			PriorityLabel(jsonutil.Stringify(fc.Old)), PriorityLabel(jsonutil.Stringify(fc.New)))
	}
}

func dueDateFragment(_ *Narrator, _ string, fc models.FieldChange, _ *models.NameChange) string {
	switch fc.Type {
	case models.ChangeAdded:
		return "set due date to " + formatDate(fc.New)
	case models.ChangeRemoved:
		return "removed due date"
	default:
		return fmt.Sprintf("changed due date from %s to %s", formatDate(fc.Old), formatDate(fc.New))
	}
}

func assignmentFragment(_ *Narrator, _ string, fc models.FieldChange, nc *models.NameChange) string {
	oldName := displayName(fc.Old, nc, false)
	newName := displayName(fc.New, nc, true)
	switch fc.Type {
	case models.ChangeAdded:
		return "assigned to " + newName
	case models.ChangeRemoved:
		return "unassigned " + oldName
	default:
		return fmt.Sprintf("reassigned from %s to %s", oldName, newName)
	}
}

func boardFragment(_ *Narrator, _ string, fc models.FieldChange, nc *models.NameChange) string {
	oldName := displayName(fc.Old, nc, false)
	newName := displayName(fc.New, nc, true)
	switch fc.Type {
	case models.ChangeAdded:
		return fmt.Sprintf("moved to board %q", newName)
	case models.ChangeRemoved:
		return fmt.Sprintf("moved from board %q", oldName)
	default:
		return fmt.Sprintf("moved between boards %q and %q", oldName, newName)
	}
}

// genericFragment covers fields without a dedicated rule: quote short
// values, or describe long text by the approximate magnitude of the
// stored word diff.
func genericFragment(n *Narrator, field string, fc models.FieldChange, _ *models.NameChange) string {
	label := fieldLabel(field)
	oldStr := jsonutil.Stringify(fc.Old)
	newStr := jsonutil.Stringify(fc.New)

	if len(oldStr) > n.th.CompactNarration || len(newStr) > n.th.CompactNarration {
		if magnitude := diffMagnitude(fc.TextDiff); magnitude != "" {
			return fmt.Sprintf("updated %s (%s)", label, magnitude)
		}
		switch fc.Type {
		case models.ChangeAdded:
			return "added " + label
		case models.ChangeRemoved:
			return "removed " + label
		default:
			return "updated " + label
		}
	}
	switch fc.Type {
	case models.ChangeAdded:
		return fmt.Sprintf("set %s to %q", label, newStr)
	case models.ChangeRemoved:
		return fmt.Sprintf("removed %s", label)
	default:
		return fmt.Sprintf("changed %s from %q to %q", label, oldStr, newStr)
	}
}

// diffMagnitude summarizes a word diff as counts of added and removed
// words, e.g. "3 words added, 1 word removed".
func diffMagnitude(parts []models.TextDiffPart) string {
	var added, removed int
	for _, p := range parts {
		words := len(strings.Fields(p.Value))
		switch {
		case p.Added:
			added += words
		case p.Removed:
			removed += words
		}
	}
	var clauses []string
	if added > 0 {
		clauses = append(clauses, countPhrase(added, "word")+" added")
	}
	if removed > 0 {
		clauses = append(clauses, countPhrase(removed, "word")+" removed")
	}
	return strings.Join(clauses, ", ")
}

func countPhrase(count int, noun string) string {
	if count != 1 {
		noun = inflection.Plural(noun)
	}
	return fmt.Sprintf("%d %s", count, noun)
}

// displayName prefers a resolved display name over the raw id.
func displayName(raw any, nc *models.NameChange, isNew bool) string {
	if nc != nil {
		if isNew && nc.New != nil {
			return *nc.New
		}
		if !isNew && nc.Old != nil {
			return *nc.Old
		}
	}
	return jsonutil.Stringify(raw)
}

func formatDate(v any) string {
	if t, ok := toTime(v); ok {
		return t.Format("Jan 2, 2006")
	}
	return jsonutil.Stringify(v)
}

func isNameField(field string) bool {
	return field == models.FieldTitle || field == models.FieldName
}

// soleRename reports whether the diff's only change is a rename with
// both sides present.
func soleRename(dd *models.DiffData) bool {
	if dd.Summary.ChangeCount != 1 {
		return false
	}
	field := dd.Summary.FieldsChanged[0]
	return isNameField(field) && dd.Changes[field].Type == models.ChangeModified
}
