package domain

import (
	"encoding/json"
	"fmt"
)

// Review is a reviewer's raw critique plus the label table it was written
// against. The text is stored verbatim and never de-anonymized here.
type Review struct {
	Text         string   `json:"review"`
	ModelMapping LabelMap `json:"model_mapping"`
}

type ReviewEntry struct {
	Reviewer string
	Review   Review
}

// ReviewSet holds one review per council member in configuration order,
// serialized as a JSON object keyed by reviewer.
type ReviewSet []ReviewEntry

func NewReviewSet(members []string) ReviewSet {
	rs := make(ReviewSet, len(members))
	for i, m := range members {
		rs[i].Reviewer = m
	}
	return rs
}

func (rs ReviewSet) Get(reviewer string) (Review, bool) {
	for _, e := range rs {
		if e.Reviewer == reviewer {
			return e.Review, true
		}
	}
	return Review{}, false
}

// Texts drops the model mappings and keys each critique by its reviewer.
func (rs ReviewSet) Texts() Opinions {
	out := make(Opinions, len(rs))
	for i, e := range rs {
		out[i] = Opinion{Member: e.Reviewer, Text: e.Review.Text}
	}
	return out
}

func (rs ReviewSet) MarshalJSON() ([]byte, error) {
	return marshalObject(len(rs), func(i int) (string, any) {
		return rs[i].Reviewer, rs[i].Review
	})
}

func (rs *ReviewSet) UnmarshalJSON(data []byte) error {
	var out ReviewSet
	seen := make(map[string]struct{})
	err := unmarshalObject(data, func(key string, raw json.RawMessage) error {
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, key)
		}
		seen[key] = struct{}{}
		var r Review
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("review by %q: %w", key, err)
		}
		out = append(out, ReviewEntry{Reviewer: key, Review: r})
		return nil
	})
	if err != nil {
		return err
	}
	*rs = out
	return nil
}
