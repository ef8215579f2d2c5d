package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	all := Catalog()
	assert.Len(t, all, 15)
	assert.Len(t, CatalogOf(KindTrigger), 6)
	assert.Len(t, CatalogOf(KindAction), 6)
	assert.Len(t, CatalogOf(KindRouter), 3)

	for _, tpl := range all {
		assert.NoError(t, tpl.Validate(), tpl.Label)
	}

	all[0].Label = "mutated"
	assert.Equal(t, "Email Received", Catalog()[0].Label)
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"email", "time", "event"}, Categories(KindTrigger))
	assert.Equal(t, []string{"email", "sms", "database", "webhook"}, Categories(KindAction))
	assert.Equal(t, []string{"conditional", "parallel", "random"}, Categories(KindRouter))
	assert.Empty(t, Categories("loop"))
}

func TestLookup(t *testing.T) {
	tpl, ok := Lookup(KindAction, "send webhook")
	require.True(t, ok)
	assert.Equal(t, "webhook", tpl.Category)
	assert.Equal(t, "Send HTTP request to external service", tpl.Description)

	_, ok = Lookup(KindTrigger, "Send Webhook")
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	assert.Len(t, Search(""), 15)
	assert.Len(t, Search("  "), 15)

	labels := func(ts []Template) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.Label)
		}
		return out
	}
	assert.Equal(t, []string{"If/Then Router", "Parallel Router", "Random Router"}, labels(Search("ROUTER")))
	assert.Equal(t, []string{"Send SMS"}, labels(Search("sms")))
	assert.Empty(t, Search("kafka"))
}

func TestTemplate_Validate(t *testing.T) {
	err := Template{Kind: KindRouter, Category: "email", Label: "Mail Router"}.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Template.Category", verr.Fields[0].Field)

	err = Template{}.Validate()
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
	for _, f := range verr.Fields {
		assert.Equal(t, "is required", f.Message)
	}
}
