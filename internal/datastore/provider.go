package datastore

import (
	"github.com/launchflag/ffcore/eval"
	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/subsystems"
)

// Provider adapts a subsystems.DataStore (whose Get/GetAll deal in untyped
// subsystems.ItemDescriptor) into the eval.DataProvider the evaluator needs (typed
// *ldmodel.Flag / *ldmodel.Segment lookups). A tombstoned or absent item is reported as
// not-found regardless of which the store returns.
type Provider struct {
	store subsystems.DataStore
}

// NewProvider wraps store as an eval.DataProvider.
func NewProvider(store subsystems.DataStore) *Provider {
	return &Provider{store: store}
}

func (p *Provider) GetFlag(key string) (*ldmodel.Flag, bool) {
	item, err := p.store.Get(ldmodel.Flags, key)
	if err != nil || item.Item == nil {
		return nil, false
	}
	flag, ok := item.Item.(*ldmodel.Flag)
	return flag, ok
}

func (p *Provider) GetSegment(key string) (*ldmodel.Segment, bool) {
	item, err := p.store.Get(ldmodel.Segments, key)
	if err != nil || item.Item == nil {
		return nil, false
	}
	segment, ok := item.Item.(*ldmodel.Segment)
	return segment, ok
}

var _ eval.DataProvider = (*Provider)(nil)
