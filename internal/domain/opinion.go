package domain

import (
	"encoding/json"
	"fmt"
)

// Opinion is one member's first-pass answer, or an error placeholder when the
// call failed.
type Opinion struct {
	Member string
	Text   string
}

// Opinions holds one slot per council member in configuration order.
// Serialized as a JSON object keyed by member, in that order.
type Opinions []Opinion

// NewOpinions allocates an empty slot for every member. Each slot is meant
// to be written exactly once by the task that owns it.
func NewOpinions(members []string) Opinions {
	o := make(Opinions, len(members))
	for i, m := range members {
		o[i].Member = m
	}
	return o
}

func (o Opinions) Get(member string) (string, bool) {
	for _, op := range o {
		if op.Member == member {
			return op.Text, true
		}
	}
	return "", false
}

func (o Opinions) Members() []string {
	members := make([]string, len(o))
	for i, op := range o {
		members[i] = op.Member
	}
	return members
}

func (o Opinions) MarshalJSON() ([]byte, error) {
	return marshalObject(len(o), func(i int) (string, any) {
		return o[i].Member, o[i].Text
	})
}

func (o *Opinions) UnmarshalJSON(data []byte) error {
	var out Opinions
	seen := make(map[string]struct{})
	err := unmarshalObject(data, func(key string, raw json.RawMessage) error {
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, key)
		}
		seen[key] = struct{}{}
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return fmt.Errorf("opinion for %q: %w", key, err)
		}
		out = append(out, Opinion{Member: key, Text: text})
		return nil
	})
	if err != nil {
		return err
	}
	*o = out
	return nil
}
