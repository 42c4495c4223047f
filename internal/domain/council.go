package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoMembers       = errors.New("council must have at least one member")
	ErrDuplicateMember = errors.New("council member listed more than once")
	ErrNoChairman      = errors.New("chairman model is required")
)

// Council is the fixed set of models consulted for one deliberation.
// Members are kept in configuration order; that order drives result
// ordering and anonymization labels.
type Council struct {
	Members  []string `json:"members" yaml:"members"`
	Chairman string   `json:"chairman" yaml:"chairman"`
}

func (c Council) Validate() error {
	if len(c.Members) == 0 {
		return ErrNoMembers
	}
	seen := make(map[string]struct{}, len(c.Members))
	for _, m := range c.Members {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("council member identifier is empty")
		}
		if _, ok := seen[m]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, m)
		}
		seen[m] = struct{}{}
	}
	if strings.TrimSpace(c.Chairman) == "" {
		return ErrNoChairman
	}
	return nil
}

// IsMember reports whether model sits on the council.
func (c Council) IsMember(model string) bool {
	for _, m := range c.Members {
		if m == model {
			return true
		}
	}
	return false
}
