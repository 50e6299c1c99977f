package plant

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"leaflens/domain"
)

//go:embed plant_data.json
var embeddedData []byte

type (
	// KnowledgeBase is read-only after construction and safe for concurrent use.
	KnowledgeBase interface {
		Lookup(label string) (domain.PlantRecord, error)
		Labels() []string
	}

	knowledgeBase struct {
		records map[string]domain.PlantRecord
		labels  []string
	}
)

// LoadKnowledgeBase reads the data set at path, or the embedded one when
// path is empty.
func LoadKnowledgeBase(path string) (KnowledgeBase, error) {
	data := embeddedData
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read knowledge base: %w", err)
		}
	}
	return NewKnowledgeBase(data)
}

func NewKnowledgeBase(data []byte) (KnowledgeBase, error) {
	records := map[string]domain.PlantRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}

	labels := make([]string, 0, len(records))
	for label := range records {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	return &knowledgeBase{records: records, labels: labels}, nil
}

// Lookup matches label exactly. The returned record shares nothing with the
// stored one.
func (kb *knowledgeBase) Lookup(label string) (domain.PlantRecord, error) {
	record, ok := kb.records[label]
	if !ok {
		return domain.PlantRecord{}, fmt.Errorf("%q: %w", label, domain.ErrPlantInfoNotFound)
	}
	record.MedicinalUses = append([]string(nil), record.MedicinalUses...)
	record.Regions = append([]string(nil), record.Regions...)
	record.Properties = append(domain.Properties(nil), record.Properties...)
	return record, nil
}

func (kb *knowledgeBase) Labels() []string {
	return append([]string(nil), kb.labels...)
}
