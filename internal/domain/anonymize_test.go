package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func membersGen() *rapid.Generator[[]string] {
	return rapid.SliceOfNDistinct(
		rapid.StringMatching(`[a-z]{1,8}/[a-z0-9-]{1,12}`),
		1, 8,
		rapid.ID[string],
	)
}

func opinionsFor(members []string) Opinions {
	ops := NewOpinions(members)
	for i := range ops {
		ops[i].Text = "answer from " + ops[i].Member
	}
	return ops
}

func TestAnonymize_ExcludesReviewerWithSequentialLabels(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		members := membersGen().Draw(t, "members")
		reviewer := members[rapid.IntRange(0, len(members)-1).Draw(t, "reviewer")]

		view := Anonymize(reviewer, opinionsFor(members))

		if len(view.Responses) != len(members)-1 {
			t.Fatalf("expected %d responses, got %d", len(members)-1, len(view.Responses))
		}
		if view.Mapping.Len() != len(members)-1 {
			t.Fatalf("expected mapping of %d, got %d", len(members)-1, view.Mapping.Len())
		}
		for i, r := range view.Responses {
			if r.Label != ResponseLabel(i+1) {
				t.Fatalf("position %d labelled %q", i, r.Label)
			}
			member, ok := view.Mapping.Member(r.Label)
			if !ok {
				t.Fatalf("label %q missing from mapping", r.Label)
			}
			if member == reviewer {
				t.Fatalf("reviewer %q sees its own opinion", reviewer)
			}
			if r.Text != "answer from "+member {
				t.Fatalf("label %q shows %q, which is not %s's opinion", r.Label, r.Text, member)
			}
		}
	})
}

func TestAnonymize_MappingIsBijection(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		members := membersGen().Draw(t, "members")
		reviewer := members[rapid.IntRange(0, len(members)-1).Draw(t, "reviewer")]

		view := Anonymize(reviewer, opinionsFor(members))

		resolved, err := view.Mapping.Resolve(view.Mapping.Labels())
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}

		var others []string
		for _, m := range members {
			if m != reviewer {
				others = append(others, m)
			}
		}
		if len(resolved) != len(others) {
			t.Fatalf("resolved %d members, expected %d", len(resolved), len(others))
		}
		for i := range others {
			if resolved[i] != others[i] {
				t.Fatalf("position %d resolved to %q, expected %q", i, resolved[i], others[i])
			}
			label, ok := view.Mapping.Label(others[i])
			if !ok || label != view.Responses[i].Label {
				t.Fatalf("member %q maps back to %q", others[i], label)
			}
		}
	})
}

func TestAnonymize_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		members := membersGen().Draw(t, "members")
		ops := opinionsFor(members)
		for _, reviewer := range members {
			first := Anonymize(reviewer, ops)
			second := Anonymize(reviewer, ops)
			if !assert.ObjectsAreEqual(first, second) {
				t.Fatalf("view for %q differs between runs", reviewer)
			}
		}
	})
}

func TestAnonymize_PerReviewerNumbering(t *testing.T) {
	ops := Opinions{{Member: "A", Text: "a"}, {Member: "B", Text: "b"}, {Member: "C", Text: "c"}}

	viewA := Anonymize("A", ops)
	viewB := Anonymize("B", ops)

	assert.Equal(t, []string{"B", "C"}, viewA.Mapping.Members())
	assert.Equal(t, []string{"A", "C"}, viewB.Mapping.Members())

	// Same label, different member: each review resolves through its own table.
	memberA, _ := viewA.Mapping.Member("Response 1")
	memberB, _ := viewB.Mapping.Member("Response 1")
	assert.Equal(t, "B", memberA)
	assert.Equal(t, "A", memberB)
}

func TestAnonymize_SingleMember(t *testing.T) {
	view := Anonymize("solo", Opinions{{Member: "solo", Text: "x"}})
	assert.Empty(t, view.Responses)
	assert.Equal(t, 0, view.Mapping.Len())

	data, err := json.Marshal(view.Mapping)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestLabelMap_RejectsDuplicates(t *testing.T) {
	_, err := NewLabelMap([]string{"Response 1", "Response 1"}, []string{"A", "B"})
	assert.Error(t, err)

	_, err = NewLabelMap([]string{"Response 1", "Response 2"}, []string{"A", "A"})
	assert.Error(t, err)

	_, err = NewLabelMap([]string{"Response 1"}, []string{"A", "B"})
	assert.Error(t, err)
}

func TestLabelMap_ResolveUnknownLabel(t *testing.T) {
	m, err := NewLabelMap([]string{"Response 1"}, []string{"B"})
	require.NoError(t, err)

	_, err = m.Resolve([]string{"Response 2"})
	assert.ErrorIs(t, err, ErrUnknownLabel)
}

func TestLabelMap_JSONKeepsOrder(t *testing.T) {
	m, err := NewLabelMap(
		[]string{"Response 1", "Response 2", "Response 3"},
		[]string{"z/model", "a/model", "m/model"},
	)
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"Response 1":"z/model","Response 2":"a/model","Response 3":"m/model"}`, string(data))

	var decoded LabelMap
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, m, decoded)
}

func TestLabelMap_UnmarshalRejectsNonBijective(t *testing.T) {
	var m LabelMap
	err := json.Unmarshal([]byte(`{"Response 1":"A","Response 2":"A"}`), &m)
	assert.Error(t, err)
}
