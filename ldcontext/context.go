package ldcontext

import "github.com/launchflag/ffcore/ldvalue"

// Context describes the evaluation subject passed to the evaluator. It is either a single-kind
// context (Kind != MultiKind) or a multi-kind context, which is a collection of single-kind
// contexts keyed by kind. Context values are immutable once built.
type Context struct {
	kind       Kind
	key        string
	attributes map[string]ldvalue.Value
	private    map[string]bool
	multi      map[Kind]Context
}

// New creates a single-kind context of DefaultKind with the given key.
func New(key string) Context {
	return Context{kind: DefaultKind, key: key}
}

// NewWithKind creates a single-kind context with an explicit kind.
func NewWithKind(kind Kind, key string) Context {
	return Context{kind: kind, key: key}
}

// NewMulti combines several single-kind contexts into one multi-kind context. Passing a single
// context returns it unchanged (a multi-kind context of one kind degrades to single-kind).
func NewMulti(contexts ...Context) Context {
	if len(contexts) == 1 {
		return contexts[0]
	}
	m := make(map[Kind]Context, len(contexts))
	for _, c := range contexts {
		m[c.kind] = c
	}
	return Context{kind: MultiKind, multi: m}
}

// WithAttribute returns a copy of the context with an additional top-level attribute set.
// Only valid on a single-kind context.
func (c Context) WithAttribute(name string, value ldvalue.Value) Context {
	cp := c
	cp.attributes = cloneAttrs(c.attributes)
	if cp.attributes == nil {
		cp.attributes = map[string]ldvalue.Value{}
	}
	cp.attributes[name] = value
	return cp
}

// WithPrivate marks the named top-level attribute as private (excluded from analytics payloads
// unless the event pipeline is configured to reveal it).
func (c Context) WithPrivate(name string) Context {
	cp := c
	cp.private = make(map[string]bool, len(c.private)+1)
	for k := range c.private {
		cp.private[k] = true
	}
	cp.private[name] = true
	return cp
}

func cloneAttrs(m map[string]ldvalue.Value) map[string]ldvalue.Value {
	if m == nil {
		return nil
	}
	cp := make(map[string]ldvalue.Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// IsMulti reports whether this is a multi-kind context.
func (c Context) IsMulti() bool { return c.kind == MultiKind }

// Kind returns the context's kind (DefaultKind for an unmarked single context, MultiKind for
// a multi-kind context).
func (c Context) Kind() Kind { return c.kind }

// Key returns the key of a single-kind context, or "" for a multi-kind context.
func (c Context) Key() string { return c.key }

// IsValid reports whether the context is minimally well-formed: a single-kind context needs a
// non-empty key and a valid kind, a multi-kind context needs at least one sub-context and every
// sub-context must be valid.
func (c Context) IsValid() bool {
	if c.IsMulti() {
		if len(c.multi) == 0 {
			return false
		}
		for _, sub := range c.multi {
			if !sub.IsValid() {
				return false
			}
		}
		return true
	}
	return c.key != "" && c.kind.IsValid()
}

// IndividualContextCount returns the number of single-kind contexts contained (1 for a
// single-kind context).
func (c Context) IndividualContextCount() int {
	if !c.IsMulti() {
		return 1
	}
	return len(c.multi)
}

// IndividualContextByIndex returns the i'th single-kind context in an unspecified but stable
// order, used for iterating all kinds (e.g. for summarizer contextKinds).
func (c Context) IndividualContextByIndex(i int) (Context, bool) {
	if !c.IsMulti() {
		if i == 0 {
			return c, true
		}
		return Context{}, false
	}
	idx := 0
	for _, sub := range c.multi {
		if idx == i {
			return sub, true
		}
		idx++
	}
	return Context{}, false
}

// ContextByKind returns the single-kind context of the given kind. For a single-kind context,
// this is itself if kind matches (or kind is empty/DefaultKind and this context is DefaultKind).
func (c Context) ContextByKind(kind Kind) (Context, bool) {
	if kind == "" {
		kind = DefaultKind
	}
	if !c.IsMulti() {
		own := c.kind
		if own == "" {
			own = DefaultKind
		}
		if kind == own {
			return c, true
		}
		return Context{}, false
	}
	sub, ok := c.multi[kind]
	return sub, ok
}

// FullyQualifiedKey returns the canonical fingerprint used for context deduplication: for a
// single-kind context, "kind:key" (bare key when kind is DefaultKind, for backward
// compatibility); for multi-kind, "multi" followed by every sub-context's "kind:key" pair
// (user included), sorted and joined with ":".
func (c Context) FullyQualifiedKey() string {
	if !c.IsMulti() {
		if c.kind == DefaultKind || c.kind == "" {
			return c.key
		}
		return string(c.kind) + ":" + c.key
	}
	keys := make([]string, 0, len(c.multi))
	for k, sub := range c.multi {
		keys = append(keys, string(k)+":"+sub.key)
	}
	// deterministic order
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	out := "multi"
	for _, k := range keys {
		out += ":" + k
	}
	return out
}

// GetValue resolves a dotted/bare attribute reference against this context's own attributes
// (it does not descend into sub-contexts of a multi-kind context; callers select the relevant
// sub-context first via ContextByKind). "key" and "kind" are always resolvable as synthetic
// attributes.
func (c Context) GetValue(ref Ref) ldvalue.Value {
	if !ref.IsValid() || c.IsMulti() {
		return ldvalue.Null()
	}
	if ref.Depth() == 1 {
		switch ref.Component(0) {
		case "key":
			return ldvalue.String(c.key)
		case "kind":
			return ldvalue.String(string(c.kind))
		}
	}
	val, ok := c.attributes[ref.Component(0)]
	if !ok {
		return ldvalue.Null()
	}
	for i := 1; i < ref.Depth(); i++ {
		val = val.GetByKey(ref.Component(i))
	}
	return val
}

// IsAttributePrivate reports whether the named top-level attribute was marked private.
func (c Context) IsAttributePrivate(name string) bool {
	return c.private[name]
}

// Attributes returns the context's own top-level custom attributes (not key/kind), for
// serialization by the event pipeline. The returned map must not be mutated.
func (c Context) Attributes() map[string]ldvalue.Value { return c.attributes }
