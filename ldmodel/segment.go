package ldmodel

import "github.com/launchflag/ffcore/ldcontext"

// ContextTargetSet is a per-kind included/excluded key list for a segment (the
// includedContexts/excludedContexts arrays).
type ContextTargetSet struct {
	ContextKind ldcontext.Kind `json:"contextKind,omitempty"`
	Values      []string       `json:"values"`

	keySet map[string]bool
}

// Preprocess builds the key-set lookup cache.
func (s *ContextTargetSet) Preprocess() {
	s.keySet = make(map[string]bool, len(s.Values))
	for _, v := range s.Values {
		s.keySet[v] = true
	}
}

// Contains reports whether key is present in this target set.
func (s *ContextTargetSet) Contains(key string) bool {
	if s.keySet != nil {
		return s.keySet[key]
	}
	for _, v := range s.Values {
		if v == key {
			return true
		}
	}
	return false
}

// SegmentRule is a segment-matching rule: contexts matching all its clauses are considered
// included via rules (after include/exclude have not already decided the match), optionally
// bucketed by a weight/percentage.
type SegmentRule struct {
	ID                 string        `json:"id"`
	Clauses            []Clause      `json:"clauses"`
	Weight             *int          `json:"weight,omitempty"` // out of 100000; nil means always match if clauses match
	BucketBy           ldcontext.Ref `json:"bucketBy,omitempty"`
	RolloutContextKind ldcontext.Kind `json:"rolloutContextKind,omitempty"`
}

// Segment is the immutable description of a single user/context segment.
type Segment struct {
	Key                  string             `json:"key"`
	Version              int                `json:"version"`
	Included             []string           `json:"included,omitempty"`
	Excluded             []string           `json:"excluded,omitempty"`
	IncludedContexts     []ContextTargetSet `json:"includedContexts,omitempty"`
	ExcludedContexts     []ContextTargetSet `json:"excludedContexts,omitempty"`
	Rules                []SegmentRule      `json:"rules,omitempty"`
	Salt                 string             `json:"salt,omitempty"`
	Unbounded            bool               `json:"unbounded,omitempty"`
	UnboundedContextKind ldcontext.Kind     `json:"unboundedContextKind,omitempty"`
	Generation           *int               `json:"generation,omitempty"`

	Deleted bool `json:"deleted,omitempty"`

	includedSet map[string]bool
	excludedSet map[string]bool
}

// Preprocess computes and attaches all derived caches for the segment.
func (s *Segment) Preprocess() {
	s.includedSet = make(map[string]bool, len(s.Included))
	for _, k := range s.Included {
		s.includedSet[k] = true
	}
	s.excludedSet = make(map[string]bool, len(s.Excluded))
	for _, k := range s.Excluded {
		s.excludedSet[k] = true
	}
	for i := range s.IncludedContexts {
		s.IncludedContexts[i].Preprocess()
	}
	for i := range s.ExcludedContexts {
		s.ExcludedContexts[i].Preprocess()
	}
	for i := range s.Rules {
		for j := range s.Rules[i].Clauses {
			s.Rules[i].Clauses[j].Preprocess()
		}
	}
}

// IncludesKey reports whether key is in the legacy (user-kind) Included list.
func (s *Segment) IncludesKey(key string) bool {
	if s.includedSet != nil {
		return s.includedSet[key]
	}
	for _, k := range s.Included {
		if k == key {
			return true
		}
	}
	return false
}

// ExcludesKey reports whether key is in the legacy (user-kind) Excluded list.
func (s *Segment) ExcludesKey(key string) bool {
	if s.excludedSet != nil {
		return s.excludedSet[key]
	}
	for _, k := range s.Excluded {
		if k == key {
			return true
		}
	}
	return false
}
