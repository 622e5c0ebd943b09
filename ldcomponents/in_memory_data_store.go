package ldcomponents

import (
	"github.com/launchflag/ffcore/internal/datastore"
	"github.com/launchflag/ffcore/subsystems"
)

type inMemoryDataStoreBuilder struct{}

// InMemoryDataStore returns a factory for the default, non-persistent data store. This is the
// default if no DataStore is set on Config.
func InMemoryDataStore() subsystems.DataStoreFactory {
	return inMemoryDataStoreBuilder{}
}

func (b inMemoryDataStoreBuilder) CreateDataStore(
	context subsystems.ClientContext, updates subsystems.DataStoreUpdateSink,
) (subsystems.DataStore, error) {
	return datastore.NewInMemoryDataStore(updates), nil
}
