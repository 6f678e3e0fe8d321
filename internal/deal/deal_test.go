package deal_test

import (
	"testing"
	"time"

	"github.com/dealdesk/dealdesk/internal/deal"
	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newLeadDeal(now time.Time) *model.Deal {
	return deal.New(
		"org-1",
		deal.Owner{ID: "user-1", Name: "Ada"},
		"Acme renewal", "Acme Corp", 12000,
		model.Contact{Name: "Grace Hopper", Email: "grace@acme.test", Phone: "555-0100"},
		"", "Lead", nil, now,
	)
}

func TestNew_SynthesizesFirstHistoryEntry(t *testing.T) {
	d := newLeadDeal(t0)

	require.Len(t, d.StageHistory, 1)
	assert.Equal(t, "", d.StageHistory[0].From)
	assert.Equal(t, "Lead", d.StageHistory[0].To)
	assert.Equal(t, t0, d.StageHistory[0].Timestamp)
	assert.False(t, d.Archived)
	assert.Equal(t, "Lead", d.Stage)
}

func TestTransition_AppendsExactlyOneEntry(t *testing.T) {
	d := newLeadDeal(t0)
	now := t0.Add(time.Hour)

	changed := deal.Transition(d, "Negotiation", now)

	require.True(t, changed)
	require.Len(t, d.StageHistory, 2)
	assert.Equal(t, "Lead", d.StageHistory[1].From)
	assert.Equal(t, "Negotiation", d.StageHistory[1].To)
	assert.Equal(t, now, d.StageHistory[1].Timestamp)
	assert.Equal(t, "Negotiation", d.Stage)
	assert.Equal(t, now, d.UpdatedAt)
	assert.False(t, d.Archived)
}

func TestTransition_SameStageIsNoOp(t *testing.T) {
	d := newLeadDeal(t0)
	before := d.UpdatedAt

	changed := deal.Transition(d, "Lead", t0.Add(time.Hour))

	assert.False(t, changed)
	assert.Len(t, d.StageHistory, 1)
	assert.Equal(t, before, d.UpdatedAt)
}

func TestTransition_ClosedLostArchives(t *testing.T) {
	d := newLeadDeal(t0)

	deal.Transition(d, deal.StageLost, t0.Add(time.Hour))

	assert.True(t, d.Archived)
}

func TestTransition_NoAutoUnarchive(t *testing.T) {
	d := newLeadDeal(t0)
	deal.Transition(d, deal.StageLost, t0.Add(time.Hour))
	require.True(t, d.Archived)

	// Reopening a lost deal moves the stage but leaves it archived.
	deal.Transition(d, "Negotiation", t0.Add(2*time.Hour))

	assert.Equal(t, "Negotiation", d.Stage)
	assert.True(t, d.Archived)
}

func TestTransition_WonDoesNotArchive(t *testing.T) {
	d := newLeadDeal(t0)

	deal.Transition(d, deal.StageWon, t0.Add(time.Hour))

	assert.False(t, d.Archived)
}

// Unknown stage names are accepted: deal stages are display data and the
// pipeline list is not consulted, matching the permissive data model.
func TestTransition_UnknownStageAccepted(t *testing.T) {
	d := newLeadDeal(t0)

	changed := deal.Transition(d, "Imported Legacy Stage", t0.Add(time.Hour))

	assert.True(t, changed)
	assert.Equal(t, "Imported Legacy Stage", d.Stage)
}

// The history's "to" sequence, read in order, equals every stage the deal has
// held, and the last entry's "to" equals the current stage.
func TestHistoryToSequenceTracksStages(t *testing.T) {
	d := newLeadDeal(t0)
	moves := []string{"Contact Made", "Proposal Sent", "Negotiation", deal.StageWon}
	for i, s := range moves {
		deal.Transition(d, s, t0.Add(time.Duration(i+1)*time.Hour))
	}

	require.Len(t, d.StageHistory, len(moves)+1)
	want := append([]string{"Lead"}, moves...)
	for i, e := range d.StageHistory {
		assert.Equal(t, want[i], e.To)
	}
	assert.Equal(t, d.Stage, d.StageHistory[len(d.StageHistory)-1].To)
}

// Scenario from the board: Lead -> Negotiation -> Closed Lost.
func TestLifecycleScenario(t *testing.T) {
	d := newLeadDeal(t0)
	require.Equal(t, model.StageHistory{{From: "", To: "Lead", Timestamp: t0}}, d.StageHistory)

	deal.Transition(d, "Negotiation", t0.Add(time.Hour))
	require.Len(t, d.StageHistory, 2)
	assert.Equal(t, model.StageChange{From: "Lead", To: "Negotiation", Timestamp: t0.Add(time.Hour)}, d.StageHistory[1])
	assert.False(t, d.Archived)

	deal.Transition(d, deal.StageLost, t0.Add(2*time.Hour))
	require.Len(t, d.StageHistory, 3)
	assert.Equal(t, model.StageChange{From: "Negotiation", To: deal.StageLost, Timestamp: t0.Add(2 * time.Hour)}, d.StageHistory[2])
	assert.True(t, d.Archived)
}

func TestApply_NonStageFieldsAppendNoHistory(t *testing.T) {
	d := newLeadDeal(t0)
	now := t0.Add(time.Hour)
	title := "Acme renewal Q2"
	value := 15000.0

	changed := deal.Apply(d, deal.Patch{Title: &title, Value: &value}, now)

	require.True(t, changed)
	assert.Equal(t, "Acme renewal Q2", d.Title)
	assert.Equal(t, 15000.0, d.Value)
	assert.Len(t, d.StageHistory, 1)
	assert.Equal(t, now, d.UpdatedAt)
}

func TestApply_StageChangeGoesThroughTransition(t *testing.T) {
	d := newLeadDeal(t0)
	now := t0.Add(time.Hour)
	stage := deal.StageLost

	changed := deal.Apply(d, deal.Patch{Stage: &stage}, now)

	require.True(t, changed)
	require.Len(t, d.StageHistory, 2)
	assert.Equal(t, "Lead", d.StageHistory[1].From)
	assert.True(t, d.Archived)
}

func TestApply_EmptyPatchIsNoOp(t *testing.T) {
	d := newLeadDeal(t0)
	before := d.UpdatedAt

	changed := deal.Apply(d, deal.Patch{}, t0.Add(time.Hour))

	assert.False(t, changed)
	assert.Equal(t, before, d.UpdatedAt)
}

func TestApply_SameStagePatchIsNoOp(t *testing.T) {
	d := newLeadDeal(t0)
	before := d.UpdatedAt
	stage := "Lead"

	changed := deal.Apply(d, deal.Patch{Stage: &stage}, t0.Add(time.Hour))

	assert.False(t, changed)
	assert.Len(t, d.StageHistory, 1)
	assert.Equal(t, before, d.UpdatedAt)
}

func TestApply_OwnerReassignment(t *testing.T) {
	d := newLeadDeal(t0)

	deal.Apply(d, deal.Patch{Owner: &deal.Owner{ID: "user-2", Name: "Lin", PhotoURL: "http://img/lin.png"}}, t0.Add(time.Hour))

	assert.Equal(t, "user-2", d.OwnerID)
	assert.Equal(t, "Lin", d.OwnerName)
	assert.Equal(t, "http://img/lin.png", d.OwnerPhotoURL)
}
