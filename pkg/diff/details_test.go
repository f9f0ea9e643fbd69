package diff

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natty6418/task-flow-sub000/pkg/models"
)

func TestDetails_ValidDiff(t *testing.T) {
	dd := buildDiff(t,
		map[string]any{models.FieldTitle: "A", models.FieldDescription: "short before text here"},
		map[string]any{models.FieldTitle: "B", models.FieldDescription: "short after text here"})

	details := Details(dd)
	require.NotNil(t, details)

	assert.Equal(t, 2, details.ChangeCount)
	assert.Equal(t, []string{models.FieldTitle, models.FieldDescription}, details.FieldsChanged)
	assert.True(t, details.HasTextDiffs)
	assert.Contains(t, details.Summary, `renamed from "A" to "B"`)
	assert.Len(t, details.Changes, 2)
}

func TestDetails_NilAndMalformed(t *testing.T) {
	assert.Nil(t, Details(nil))

	// Count disagreeing with the change map marks the blob malformed.
	assert.Nil(t, Details(&models.DiffData{
		Changes: map[string]models.FieldChange{models.FieldTitle: {}},
		Summary: models.DiffSummary{FieldsChanged: []string{models.FieldTitle}, ChangeCount: 3},
	}))
}

func TestDetails_SurvivesStorageRoundTrip(t *testing.T) {
	dd := buildDiff(t,
		map[string]any{models.FieldDescription: "the old description is fairly long"},
		map[string]any{models.FieldDescription: "the new description is fairly long"})

	blob, err := json.Marshal(dd)
	require.NoError(t, err)
	var restored models.DiffData
	require.NoError(t, json.Unmarshal(blob, &restored))

	details := Details(&restored)
	require.NotNil(t, details)
	assert.True(t, details.HasTextDiffs)
	assert.Equal(t, Details(dd).Summary, details.Summary)
}

func TestTextDiffForField(t *testing.T) {
	dd := buildDiff(t,
		map[string]any{
			models.FieldDescription: "the old description is fairly long",
			models.FieldStatus:      "TODO",
		},
		map[string]any{
			models.FieldDescription: "the new description is fairly long",
			models.FieldStatus:      "DONE",
		})

	parts := TextDiffForField(dd, models.FieldDescription)
	assert.NotEmpty(t, parts)

	assert.Nil(t, TextDiffForField(dd, models.FieldStatus), "no diff stored for short enum")
	assert.Nil(t, TextDiffForField(dd, "never_changed"))
	assert.Nil(t, TextDiffForField(nil, models.FieldDescription))
}

func TestRegenerateSummary(t *testing.T) {
	dd := buildDiff(t,
		map[string]any{models.FieldStatus: "TODO", models.FieldPriority: "LOW"},
		map[string]any{models.FieldStatus: "DONE", models.FieldPriority: "HIGH"})

	summary := RegenerateSummary(dd)
	assert.Equal(t, "changed status from To Do to Done, changed priority from Low to High", summary)

	assert.Equal(t, "", RegenerateSummary(nil))
}
