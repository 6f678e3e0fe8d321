package deal_test

import (
	"testing"

	"github.com/dealdesk/dealdesk/internal/deal"
	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeals() []model.Deal {
	return []model.Deal{
		{ID: "1", Title: "Acme renewal", Company: "Acme Corp", Contact: model.Contact{Name: "Grace", Email: "grace@acme.test", Phone: "555-0100"}},
		{ID: "2", Title: "Globex pilot", Company: "Globex", Contact: model.Contact{Name: "Hank", Email: "hank@globex.test", Phone: "555-0101"}, Archived: true},
		{ID: "3", Title: "Initech upsell", Company: "Initech", Contact: model.Contact{Name: "Petra", Email: "petra@initech.test", Phone: "867-5309"}},
	}
}

func ids(deals []model.Deal) []string {
	out := make([]string, 0, len(deals))
	for _, d := range deals {
		out = append(out, d.ID)
	}
	return out
}

func TestFilter_HidesArchivedByDefault(t *testing.T) {
	got := deal.Filter(sampleDeals(), "", false)
	assert.Equal(t, []string{"1", "3"}, ids(got))
	for _, d := range got {
		assert.False(t, d.Archived)
	}
}

func TestFilter_ShowArchivedIncludesAll(t *testing.T) {
	got := deal.Filter(sampleDeals(), "", true)
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
}

func TestFilter_QueryIsCaseInsensitive(t *testing.T) {
	got := deal.Filter(sampleDeals(), "ACME", false)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestFilter_QueryMatchesContactFields(t *testing.T) {
	byName := deal.Filter(sampleDeals(), "petra", false)
	require.Len(t, byName, 1)
	assert.Equal(t, "3", byName[0].ID)

	byEmail := deal.Filter(sampleDeals(), "grace@", false)
	require.Len(t, byEmail, 1)
	assert.Equal(t, "1", byEmail[0].ID)

	byPhone := deal.Filter(sampleDeals(), "867-53", false)
	require.Len(t, byPhone, 1)
	assert.Equal(t, "3", byPhone[0].ID)
}

func TestFilter_QueryIsTrimmed(t *testing.T) {
	got := deal.Filter(sampleDeals(), "  initech  ", false)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
}

func TestFilter_WhitespaceQueryMatchesEverything(t *testing.T) {
	got := deal.Filter(sampleDeals(), "   ", false)
	assert.Equal(t, []string{"1", "3"}, ids(got))
}

func TestFilter_ArchivedStillExcludedWithQuery(t *testing.T) {
	got := deal.Filter(sampleDeals(), "globex", false)
	assert.Empty(t, got)

	got = deal.Filter(sampleDeals(), "globex", true)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}
