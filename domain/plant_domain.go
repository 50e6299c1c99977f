package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	MessageSuccessGetPlantInfo   = "plant information retrieved successfully"
	MessageSuccessGetPlantLabels = "plant labels retrieved successfully"
	MessageFailedGetPlantInfo    = "failed to retrieve plant information"

	ErrPlantInfoNotFound = fmt.Errorf("plant information %w", ErrNotFound)
	ErrMalformedInfo     = fmt.Errorf("malformed plant information: %w", ErrInvalidInput)
)

// Canonical record keys, in display order.
const (
	FieldScientificName = "scientific_name"
	FieldFamily         = "family"
	FieldDescription    = "description"
	FieldMedicinalUses  = "medicinal_uses"
	FieldRegions        = "regions"
	FieldProperties     = "properties"
)

var FieldDisplayNames = map[string]string{
	FieldScientificName: "Scientific Name",
	FieldFamily:         "Family",
	FieldDescription:    "Description",
	FieldMedicinalUses:  "Medicinal Uses",
	FieldRegions:        "Regions",
	FieldProperties:     "Properties",
}

type ValueKind int

const (
	KindText ValueKind = iota
	KindList
	KindMap
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

type (
	// Property is one named entry of a record's property map. Key is the
	// name as stored in the knowledge base, Label is what clients see.
	Property struct {
		Key   string
		Label string
		Value string
	}

	Properties []Property

	PlantRecord struct {
		ScientificName string     `json:"scientific_name"`
		Family         string     `json:"family"`
		Description    string     `json:"description"`
		MedicinalUses  []string   `json:"medicinal_uses"`
		Regions        []string   `json:"regions"`
		Properties     Properties `json:"properties"`
	}

	InfoValue struct {
		Kind ValueKind
		Text string
		List []string
		Map  Properties
	}

	InfoField struct {
		Key   string
		Label string
		Value InfoValue
	}

	// PlantInfo is the ordered, localizable rendering of a PlantRecord.
	// Its JSON form is an object keyed by label in field order.
	PlantInfo struct {
		Fields []InfoField
	}
)

func TextValue(s string) InfoValue        { return InfoValue{Kind: KindText, Text: s} }
func ListValue(items []string) InfoValue  { return InfoValue{Kind: KindList, List: items} }
func MapValue(props Properties) InfoValue { return InfoValue{Kind: KindMap, Map: props} }

// Info renders the record with canonical keys as labels.
func (r PlantRecord) Info() PlantInfo {
	props := make(Properties, len(r.Properties))
	for i, p := range r.Properties {
		props[i] = Property{Key: p.Key, Label: p.Key, Value: p.Value}
	}
	return PlantInfo{Fields: []InfoField{
		{Key: FieldScientificName, Label: FieldScientificName, Value: TextValue(r.ScientificName)},
		{Key: FieldFamily, Label: FieldFamily, Value: TextValue(r.Family)},
		{Key: FieldDescription, Label: FieldDescription, Value: TextValue(r.Description)},
		{Key: FieldMedicinalUses, Label: FieldMedicinalUses, Value: ListValue(cloneStrings(r.MedicinalUses))},
		{Key: FieldRegions, Label: FieldRegions, Value: ListValue(cloneStrings(r.Regions))},
		{Key: FieldProperties, Label: FieldProperties, Value: MapValue(props)},
	}}
}

func (v InfoValue) IsEmpty() bool {
	switch v.Kind {
	case KindList:
		return len(v.List) == 0
	case KindMap:
		return len(v.Map) == 0
	default:
		return v.Text == ""
	}
}

func (p PlantInfo) Clone() PlantInfo {
	fields := make([]InfoField, len(p.Fields))
	for i, f := range p.Fields {
		fields[i] = f
		fields[i].Value.List = cloneStrings(f.Value.List)
		if f.Value.Map != nil {
			fields[i].Value.Map = append(Properties(nil), f.Value.Map...)
		}
	}
	return PlantInfo{Fields: fields}
}

// SameShape reports whether o has the same fields, kinds and cardinalities
// as p, position by position.
func (p PlantInfo) SameShape(o PlantInfo) bool {
	if len(p.Fields) != len(o.Fields) {
		return false
	}
	for i := range p.Fields {
		a, b := p.Fields[i], o.Fields[i]
		if a.Key != b.Key || a.Value.Kind != b.Value.Kind {
			return false
		}
		if len(a.Value.List) != len(b.Value.List) || len(a.Value.Map) != len(b.Value.Map) {
			return false
		}
		for j := range a.Value.Map {
			if a.Value.Map[j].Key != b.Value.Map[j].Key {
				return false
			}
		}
	}
	return true
}

// UniqueLabels reports whether no two fields, and no two properties of the
// same map, share a label.
func (p PlantInfo) UniqueLabels() bool {
	seen := make(map[string]struct{}, len(p.Fields))
	for _, f := range p.Fields {
		if _, dup := seen[f.Label]; dup {
			return false
		}
		seen[f.Label] = struct{}{}
		if f.Value.Kind == KindMap && !f.Value.Map.uniqueLabels() {
			return false
		}
	}
	return true
}

// RestoreDuplicateLabels gives every field or property whose label repeats
// an earlier one at the same level its label from original. original must
// have the same shape as p.
func (p PlantInfo) RestoreDuplicateLabels(original PlantInfo) PlantInfo {
	out := p.Clone()
	if !p.SameShape(original) {
		return out
	}
	seen := make(map[string]struct{}, len(out.Fields))
	for i := range out.Fields {
		f := &out.Fields[i]
		if _, dup := seen[f.Label]; dup {
			f.Label = original.Fields[i].Label
		}
		seen[f.Label] = struct{}{}
		if f.Value.Kind == KindMap {
			f.Value.Map.restoreDuplicateLabels(original.Fields[i].Value.Map)
		}
	}
	return out
}

func (props Properties) uniqueLabels() bool {
	seen := make(map[string]struct{}, len(props))
	for _, p := range props {
		if _, dup := seen[p.Label]; dup {
			return false
		}
		seen[p.Label] = struct{}{}
	}
	return true
}

func (props Properties) restoreDuplicateLabels(original Properties) {
	seen := make(map[string]struct{}, len(props))
	for j := range props {
		if _, dup := seen[props[j].Label]; dup {
			props[j].Label = original[j].Label
		}
		seen[props[j].Label] = struct{}{}
	}
}

// Strings flattens every label and string leaf in a stable order.
// WithStrings is its inverse.
func (p PlantInfo) Strings() []string {
	var out []string
	for _, f := range p.Fields {
		out = append(out, f.Label)
		switch f.Value.Kind {
		case KindText:
			out = append(out, f.Value.Text)
		case KindList:
			out = append(out, f.Value.List...)
		case KindMap:
			for _, prop := range f.Value.Map {
				out = append(out, prop.Label, prop.Value)
			}
		}
	}
	return out
}

func (p PlantInfo) WithStrings(values []string) (PlantInfo, error) {
	if len(values) != len(p.Strings()) {
		return PlantInfo{}, ErrMalformedInfo
	}
	out := p.Clone()
	i := 0
	next := func() string {
		s := values[i]
		i++
		return s
	}
	for fi := range out.Fields {
		f := &out.Fields[fi]
		f.Label = next()
		switch f.Value.Kind {
		case KindText:
			f.Value.Text = next()
		case KindList:
			for j := range f.Value.List {
				f.Value.List[j] = next()
			}
		case KindMap:
			for j := range f.Value.Map {
				f.Value.Map[j].Label = next()
				f.Value.Map[j].Value = next()
			}
		}
	}
	return out, nil
}

func (p PlantInfo) MarshalJSON() ([]byte, error) {
	fields := orderedmap.New[string, InfoValue](len(p.Fields))
	for _, f := range p.Fields {
		fields.Set(f.Label, f.Value)
	}
	return fields.MarshalJSON()
}

// UnmarshalJSON keeps the document order of the object. null decodes to an
// empty record.
func (p *PlantInfo) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		p.Fields = []InfoField{}
		return nil
	}
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	fields := make([]InfoField, 0, raw.Len())
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		value, err := decodeValue(pair.Value)
		if err != nil {
			return err
		}
		fields = append(fields, InfoField{Key: canonicalKey(pair.Key), Label: pair.Key, Value: value})
	}
	p.Fields = fields
	return nil
}

func (v InfoValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindMap:
		return v.Map.MarshalJSON()
	default:
		return json.Marshal(v.Text)
	}
}

func (props Properties) MarshalJSON() ([]byte, error) {
	out := orderedmap.New[string, string](len(props))
	for _, p := range props {
		label := p.Label
		if label == "" {
			label = p.Key
		}
		out.Set(label, p.Value)
	}
	return out.MarshalJSON()
}

func (props *Properties) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*props = Properties{}
		return nil
	}
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	out := make(Properties, 0, raw.Len())
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		value, err := decodeScalar(pair.Value)
		if err != nil {
			return err
		}
		out = append(out, Property{Key: pair.Key, Label: pair.Key, Value: value})
	}
	*props = out
	return nil
}

func canonicalKey(label string) string {
	for key, display := range FieldDisplayNames {
		if label == key || strings.EqualFold(label, display) {
			return key
		}
	}
	return label
}

// decodeObject reads a JSON object into an insertion-ordered map of raw
// member values.
func decodeObject(data []byte) (*orderedmap.OrderedMap[string, json.RawMessage], error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformedInfo
	}
	raw := orderedmap.New[string, json.RawMessage]()
	if err := raw.UnmarshalJSON(trimmed); err != nil {
		return nil, errors.Join(ErrMalformedInfo, err)
	}
	return raw, nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func decodeValue(raw json.RawMessage) (InfoValue, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return InfoValue{}, ErrMalformedInfo
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return InfoValue{}, err
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			s, err := decodeScalar(item)
			if err != nil {
				return InfoValue{}, err
			}
			list = append(list, s)
		}
		return ListValue(list), nil
	case '{':
		var props Properties
		if err := props.UnmarshalJSON(trimmed); err != nil {
			return InfoValue{}, err
		}
		return MapValue(props), nil
	default:
		s, err := decodeScalar(trimmed)
		if err != nil {
			return InfoValue{}, err
		}
		return TextValue(s), nil
	}
}

func decodeScalar(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return "", ErrMalformedInfo
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case bytes.Equal(trimmed, []byte("null")):
		return "", nil
	case trimmed[0] == '[' || trimmed[0] == '{':
		return "", errors.Join(ErrMalformedInfo, fmt.Errorf("nested value %s", trimmed))
	default:
		return string(trimmed), nil
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
