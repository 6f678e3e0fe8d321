package pipeline_test

import (
	"testing"

	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/dealdesk/dealdesk/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_SixStagesInOrder(t *testing.T) {
	stages := pipeline.Default()
	require.Len(t, stages, 6)
	assert.Equal(t, []string{"Lead", "Contact Made", "Proposal Sent", "Negotiation", "Closed Won", "Closed Lost"}, pipeline.Names(stages))
	for _, s := range stages {
		assert.NotEmpty(t, s.ID)
		assert.NotEmpty(t, s.Color)
	}
}

func TestReorder_MovesStagePreservingOthers(t *testing.T) {
	stages := pipeline.Default()

	got := pipeline.Reorder(stages, 0, 3)

	assert.Equal(t, []string{"Contact Made", "Proposal Sent", "Negotiation", "Lead", "Closed Won", "Closed Lost"}, pipeline.Names(got))
}

func TestReorder_MoveBackwards(t *testing.T) {
	stages := pipeline.Default()

	got := pipeline.Reorder(stages, 4, 1)

	assert.Equal(t, []string{"Lead", "Closed Won", "Contact Made", "Proposal Sent", "Negotiation", "Closed Lost"}, pipeline.Names(got))
}

func TestReorder_OutOfRangeIsNoOp(t *testing.T) {
	stages := pipeline.Default()
	assert.Equal(t, pipeline.Names(stages), pipeline.Names(pipeline.Reorder(stages, -1, 2)))
	assert.Equal(t, pipeline.Names(stages), pipeline.Names(pipeline.Reorder(stages, 0, 6)))
	assert.Equal(t, pipeline.Names(stages), pipeline.Names(pipeline.Reorder(stages, 2, 2)))
}

func TestAdd_TrimsNameAndAssignsIDAndColor(t *testing.T) {
	stages, err := pipeline.Add(pipeline.Default(), "  Demo Scheduled  ")
	require.NoError(t, err)
	require.Len(t, stages, 7)

	added := stages[6]
	assert.Equal(t, "Demo Scheduled", added.Name)
	assert.NotEmpty(t, added.ID)
	assert.NotEmpty(t, added.Color)
}

func TestAdd_BlankNameRejected(t *testing.T) {
	stages := pipeline.Default()

	got, err := pipeline.Add(stages, "   ")

	require.ErrorIs(t, err, pipeline.ErrBlankName)
	assert.Len(t, got, 6)
}

func TestDelete_RemovesStage(t *testing.T) {
	stages := pipeline.Default()

	got, err := pipeline.Delete(stages, stages[2].ID)

	require.NoError(t, err)
	assert.Equal(t, []string{"Lead", "Contact Made", "Negotiation", "Closed Won", "Closed Lost"}, pipeline.Names(got))
}

func TestDelete_RejectedAtTwoStages(t *testing.T) {
	stages := model.Stages{
		{ID: "a", Name: "Open", Color: "#818CF8"},
		{ID: "b", Name: "Closed", Color: "#EF4444"},
	}

	got, err := pipeline.Delete(stages, "a")

	require.ErrorIs(t, err, pipeline.ErrMinStages)
	assert.Len(t, got, 2, "stage list length is unchanged after the rejected call")
}

func TestDelete_UnknownID(t *testing.T) {
	stages := pipeline.Default()

	_, err := pipeline.Delete(stages, "nope")

	require.ErrorIs(t, err, pipeline.ErrStageNotFound)
}

func TestUpdate_RenameAndRecolor(t *testing.T) {
	stages := pipeline.Default()

	got, err := pipeline.Update(stages, stages[0].ID, "Inbound Lead", "#FFFFFF")

	require.NoError(t, err)
	assert.Equal(t, "Inbound Lead", got[0].Name)
	assert.Equal(t, "#FFFFFF", got[0].Color)
	// Input list is untouched.
	assert.Equal(t, "Lead", stages[0].Name)
}

func TestUpdate_EmptyArgsLeaveAttributes(t *testing.T) {
	stages := pipeline.Default()

	got, err := pipeline.Update(stages, stages[1].ID, "  ", "")

	require.NoError(t, err)
	assert.Equal(t, "Contact Made", got[1].Name)
	assert.Equal(t, stages[1].Color, got[1].Color)
}
