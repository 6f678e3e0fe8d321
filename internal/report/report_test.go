package report_test

import (
	"testing"
	"time"

	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/dealdesk/dealdesk/internal/pipeline"
	"github.com/dealdesk/dealdesk/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func reportDeals() []model.Deal {
	return []model.Deal{
		{ID: "1", OwnerID: "u1", Stage: "Closed Won", Value: 1000, CreatedAt: now.AddDate(0, 0, -5)},
		{ID: "2", OwnerID: "u1", Stage: "Closed Lost", Value: 500, CreatedAt: now.AddDate(0, 0, -10)},
		{ID: "3", OwnerID: "u2", Stage: "Negotiation", Value: 2000, CreatedAt: now.AddDate(0, 0, -40)},
		{ID: "4", OwnerID: "u2", Stage: "Closed Won", Value: 3000, CreatedAt: now.AddDate(0, 0, -2)},
	}
}

func TestSummarize(t *testing.T) {
	s := report.Summarize(reportDeals())

	assert.Equal(t, 4, s.TotalDeals)
	assert.Equal(t, 6500.0, s.TotalValue)
	assert.Equal(t, 4000.0, s.WonValue)
	assert.Equal(t, 2, s.WonDeals)
	assert.Equal(t, 1, s.LostDeals)
	assert.InDelta(t, 66.67, s.WinRate, 0.01)
}

func TestSummarize_NoClosedDeals(t *testing.T) {
	s := report.Summarize([]model.Deal{{Stage: "Lead", Value: 100}})
	assert.Zero(t, s.WinRate)
}

func TestNarrow_ByDateRange(t *testing.T) {
	got := report.Narrow(reportDeals(), 30, "", now)

	require.Len(t, got, 3)
	for _, d := range got {
		assert.NotEqual(t, "3", d.ID)
	}
}

func TestNarrow_ByOwner(t *testing.T) {
	got := report.Narrow(reportDeals(), 0, "u2", now)

	require.Len(t, got, 2)
	for _, d := range got {
		assert.Equal(t, "u2", d.OwnerID)
	}
}

func TestNarrow_AllTime(t *testing.T) {
	assert.Len(t, report.Narrow(reportDeals(), 0, "", now), 4)
}

func TestByMember_SortedByTotalValue(t *testing.T) {
	members := []model.User{
		{ID: "u1", DisplayName: "Ada"},
		{ID: "u2", Email: "lin@dealdesk.test"},
		{ID: "u3", DisplayName: "Idle"},
	}

	rows := report.ByMember(reportDeals(), members)

	require.Len(t, rows, 3)
	assert.Equal(t, "u2", rows[0].UserID)
	assert.Equal(t, "lin@dealdesk.test", rows[0].Name, "email stands in for a missing display name")
	assert.Equal(t, 5000.0, rows[0].TotalValue)
	assert.InDelta(t, 100.0, rows[0].WinRate, 0.01)

	assert.Equal(t, "u1", rows[1].UserID)
	assert.InDelta(t, 50.0, rows[1].WinRate, 0.01)

	assert.Equal(t, "u3", rows[2].UserID)
	assert.Zero(t, rows[2].Deals)
}

func TestByStage_PipelineOrder(t *testing.T) {
	rows := report.ByStage(reportDeals(), pipeline.Default())

	require.Len(t, rows, 6)
	assert.Equal(t, "Lead", rows[0].Stage)
	assert.Zero(t, rows[0].Count)

	assert.Equal(t, "Negotiation", rows[3].Stage)
	assert.Equal(t, 1, rows[3].Count)
	assert.Equal(t, 2000.0, rows[3].Value)

	assert.Equal(t, "Closed Won", rows[4].Stage)
	assert.Equal(t, 2, rows[4].Count)
	assert.Equal(t, 4000.0, rows[4].Value)
}
