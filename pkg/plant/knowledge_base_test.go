package plant

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaflens/domain"
)

func TestEmbeddedKnowledgeBase(t *testing.T) {
	kb, err := LoadKnowledgeBase("")
	require.NoError(t, err)

	record, err := kb.Lookup("Tulasi")
	require.NoError(t, err)
	assert.Equal(t, "Ocimum tenuiflorum", record.ScientificName)
	assert.Equal(t, "Lamiaceae", record.Family)
	assert.NotEmpty(t, record.MedicinalUses)

	require.Len(t, record.Properties, 4)
	assert.Equal(t, "Anti-inflammatory", record.Properties[0].Key)
	assert.Equal(t, "Traditional use", record.Properties[3].Key)
}

func TestLookupIsExactMatch(t *testing.T) {
	kb, err := LoadKnowledgeBase("")
	require.NoError(t, err)

	_, err = kb.Lookup("tulasi")
	assert.ErrorIs(t, err, domain.ErrPlantInfoNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = kb.Lookup("Unobtainium")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLookupReturnsCopy(t *testing.T) {
	kb, err := LoadKnowledgeBase("")
	require.NoError(t, err)

	first, err := kb.Lookup("Neem")
	require.NoError(t, err)
	first.MedicinalUses[0] = "changed"
	first.Properties[0].Value = "changed"

	second, err := kb.Lookup("Neem")
	require.NoError(t, err)
	assert.NotEqual(t, "changed", second.MedicinalUses[0])
	assert.NotEqual(t, "changed", second.Properties[0].Value)
}

func TestInfoPreservesFieldOrder(t *testing.T) {
	kb, err := NewKnowledgeBase([]byte(`{
		"Mint": {
			"scientific_name": "Mentha arvensis",
			"family": "Lamiaceae",
			"description": "herb",
			"medicinal_uses": ["digestion"],
			"regions": ["Europe"],
			"properties": {"Zeta": "1", "Alpha": "2"}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Mint"}, kb.Labels())

	record, err := kb.Lookup("Mint")
	require.NoError(t, err)

	out, err := json.Marshal(record.Info())
	require.NoError(t, err)
	assert.Equal(t,
		`{"scientific_name":"Mentha arvensis","family":"Lamiaceae","description":"herb",`+
			`"medicinal_uses":["digestion"],"regions":["Europe"],"properties":{"Zeta":"1","Alpha":"2"}}`,
		string(out))
}

func TestMalformedKnowledgeBase(t *testing.T) {
	_, err := NewKnowledgeBase([]byte(`[1,2,3]`))
	assert.Error(t, err)
}
