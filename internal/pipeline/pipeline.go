// Package pipeline manages an organization's ordered stage list. Operations
// here are pure array edits; nothing touches the store until the caller
// commits the whole list at once.
package pipeline

import (
	"errors"
	"math/rand"
	"strings"

	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/google/uuid"
)

// MinStages is the smallest pipeline an organization may keep. Enforced at
// this boundary rather than in the presentation layer so the guarantee holds
// for every caller.
const MinStages = 2

// ErrBlankName rejects stage names that are empty after trimming.
var ErrBlankName = errors.New("stage name is required")

// ErrMinStages rejects deletions that would shrink the pipeline below MinStages.
var ErrMinStages = errors.New("a pipeline must keep at least two stages")

// ErrStageNotFound is returned when a stage id is absent from the list.
var ErrStageNotFound = errors.New("stage not found")

// palette holds the colors a newly added stage is randomly assigned from.
var palette = []string{
	"#818CF8", // indigo
	"#60A5FA", // blue
	"#34D399", // emerald
	"#FBBF24", // amber
	"#F87171", // red
	"#A78BFA", // purple
	"#4ADE80", // green
	"#FB923C", // orange
}

// Default returns the six-stage list that seeds new organizations.
func Default() model.Stages {
	return model.Stages{
		{ID: "1", Name: "Lead", Color: "#818CF8"},
		{ID: "2", Name: "Contact Made", Color: "#60A5FA"},
		{ID: "3", Name: "Proposal Sent", Color: "#34D399"},
		{ID: "4", Name: "Negotiation", Color: "#FBBF24"},
		{ID: "5", Name: "Closed Won", Color: "#10B981"},
		{ID: "6", Name: "Closed Lost", Color: "#EF4444"},
	}
}

// Reorder moves the stage at fromIndex to toIndex, preserving the relative
// order of everything else. Out-of-range indexes leave the list unchanged.
func Reorder(stages model.Stages, fromIndex, toIndex int) model.Stages {
	n := len(stages)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n || fromIndex == toIndex {
		return stages
	}
	out := make(model.Stages, 0, n)
	out = append(out, stages[:fromIndex]...)
	out = append(out, stages[fromIndex+1:]...)
	moved := stages[fromIndex]
	out = append(out[:toIndex], append(model.Stages{moved}, out[toIndex:]...)...)
	return out
}

// Add appends a new stage with a generated id and a random palette color.
// Names are trimmed; a blank name is rejected.
func Add(stages model.Stages, name string) (model.Stages, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return stages, ErrBlankName
	}
	return append(stages, model.Stage{
		ID:    uuid.New().String(),
		Name:  name,
		Color: palette[rand.Intn(len(palette))],
	}), nil
}

// Delete removes the stage with the given id. The deletion is rejected when
// the resulting list would fall below MinStages; the input is returned
// unchanged in that case.
func Delete(stages model.Stages, id string) (model.Stages, error) {
	idx := indexOf(stages, id)
	if idx < 0 {
		return stages, ErrStageNotFound
	}
	if len(stages)-1 < MinStages {
		return stages, ErrMinStages
	}
	out := make(model.Stages, 0, len(stages)-1)
	out = append(out, stages[:idx]...)
	out = append(out, stages[idx+1:]...)
	return out, nil
}

// Update renames and/or recolors one stage in place. Empty arguments leave
// the corresponding attribute unchanged. Renaming never rewrites stage names
// already recorded on deals or in their histories.
func Update(stages model.Stages, id, name, color string) (model.Stages, error) {
	idx := indexOf(stages, id)
	if idx < 0 {
		return stages, ErrStageNotFound
	}
	out := make(model.Stages, len(stages))
	copy(out, stages)
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		out[idx].Name = trimmed
	}
	if color != "" {
		out[idx].Color = color
	}
	return out, nil
}

// Names returns the stage names in pipeline order.
func Names(stages model.Stages) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.Name
	}
	return out
}

func indexOf(stages model.Stages, id string) int {
	for i, s := range stages {
		if s.ID == id {
			return i
		}
	}
	return -1
}
