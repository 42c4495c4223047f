package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownLabel = errors.New("label not present in model mapping")

// ResponseLabel returns the positional label shown to a reviewer, starting at 1.
func ResponseLabel(position int) string {
	return fmt.Sprintf("Response %d", position)
}

// LabelMap is a bijection between anonymous labels and member identifiers.
// Entries keep insertion order, which is the order the reviewer saw them.
type LabelMap struct {
	labels  []string
	members []string
}

// NewLabelMap builds a mapping from parallel label/member slices. It fails if
// either side repeats a value.
func NewLabelMap(labels, members []string) (LabelMap, error) {
	if len(labels) != len(members) {
		return LabelMap{}, fmt.Errorf("label map: %d labels for %d members", len(labels), len(members))
	}
	var m LabelMap
	for i := range labels {
		if err := m.add(labels[i], members[i]); err != nil {
			return LabelMap{}, err
		}
	}
	return m, nil
}

func (m *LabelMap) add(label, member string) error {
	if _, ok := m.Member(label); ok {
		return fmt.Errorf("label map: duplicate label %q", label)
	}
	if _, ok := m.Label(member); ok {
		return fmt.Errorf("label map: member %q already labelled", member)
	}
	m.labels = append(m.labels, label)
	m.members = append(m.members, member)
	return nil
}

func (m LabelMap) Len() int { return len(m.labels) }

// Member resolves a label back to the member it stands for.
func (m LabelMap) Member(label string) (string, bool) {
	for i, l := range m.labels {
		if l == label {
			return m.members[i], true
		}
	}
	return "", false
}

// Label returns the label assigned to member.
func (m LabelMap) Label(member string) (string, bool) {
	for i, mem := range m.members {
		if mem == member {
			return m.labels[i], true
		}
	}
	return "", false
}

func (m LabelMap) Labels() []string {
	return append([]string(nil), m.labels...)
}

func (m LabelMap) Members() []string {
	return append([]string(nil), m.members...)
}

// Resolve maps every label to its member, failing on the first unknown label.
func (m LabelMap) Resolve(labels []string) ([]string, error) {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		member, ok := m.Member(l)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, l)
		}
		out = append(out, member)
	}
	return out, nil
}

func (m LabelMap) MarshalJSON() ([]byte, error) {
	return marshalObject(len(m.labels), func(i int) (string, any) {
		return m.labels[i], m.members[i]
	})
}

func (m *LabelMap) UnmarshalJSON(data []byte) error {
	var out LabelMap
	err := unmarshalObject(data, func(key string, raw json.RawMessage) error {
		var member string
		if err := json.Unmarshal(raw, &member); err != nil {
			return fmt.Errorf("model mapping for %q: %w", key, err)
		}
		return out.add(key, member)
	})
	if err != nil {
		return err
	}
	*m = out
	return nil
}

// AnonymizedResponse is one opinion as shown to a reviewer.
type AnonymizedResponse struct {
	Label string
	Text  string
}

// AnonymizedView is what a single reviewer gets to see: every other member's
// opinion under a positional label, plus the table to undo the labels.
type AnonymizedView struct {
	Reviewer  string
	Responses []AnonymizedResponse
	Mapping   LabelMap
}

// Anonymize builds the view for reviewer. Labels are numbered from 1 over the
// remaining members in opinion order, so numbering depends only on the
// configured member order and on who is reviewing.
func Anonymize(reviewer string, opinions Opinions) AnonymizedView {
	view := AnonymizedView{Reviewer: reviewer}
	for _, op := range opinions {
		if op.Member == reviewer {
			continue
		}
		label := ResponseLabel(len(view.Responses) + 1)
		view.Responses = append(view.Responses, AnonymizedResponse{Label: label, Text: op.Text})
		view.Mapping.labels = append(view.Mapping.labels, label)
		view.Mapping.members = append(view.Mapping.members, op.Member)
	}
	return view
}
