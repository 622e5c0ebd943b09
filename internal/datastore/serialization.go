package datastore

import (
	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/subsystems"
)

// Serialize and Deserialize bridge the in-memory subsystems.ItemDescriptor and the persistent
// boundary's subsystems.SerializedItemDescriptor, dispatching to ldmodel's flag/segment JSON
// codecs by kind. These are the function values passed into NewPersistentStoreWrapper.

// Serialize implements the persistent store wrapper's serialize function parameter.
func Serialize(kind subsystems.DataKind, item subsystems.ItemDescriptor) subsystems.SerializedItemDescriptor {
	if item.Item == nil {
		return subsystems.SerializedItemDescriptor{Version: item.Version, Deleted: true}
	}
	var data []byte
	var err error
	switch kind {
	case ldmodel.Flags:
		data, err = ldmodel.MarshalFlag(*item.Item.(*ldmodel.Flag))
	case ldmodel.Segments:
		data, err = ldmodel.MarshalSegment(*item.Item.(*ldmodel.Segment))
	}
	if err != nil {
		return subsystems.SerializedItemDescriptor{Version: item.Version, Deleted: true}
	}
	return subsystems.SerializedItemDescriptor{Version: item.Version, Serialized: string(data)}
}

// Deserialize implements the persistent store wrapper's deserialize function parameter.
func Deserialize(kind subsystems.DataKind, serialized subsystems.SerializedItemDescriptor) subsystems.ItemDescriptor {
	if serialized.Deleted || serialized.Serialized == "" {
		return subsystems.ItemDescriptor{Version: serialized.Version, Item: nil}
	}
	switch kind {
	case ldmodel.Flags:
		f, err := ldmodel.UnmarshalFlag([]byte(serialized.Serialized))
		if err != nil {
			return subsystems.ItemDescriptor{Version: serialized.Version, Item: nil}
		}
		return subsystems.ItemDescriptor{Version: serialized.Version, Item: &f}
	case ldmodel.Segments:
		s, err := ldmodel.UnmarshalSegment([]byte(serialized.Serialized))
		if err != nil {
			return subsystems.ItemDescriptor{Version: serialized.Version, Item: nil}
		}
		return subsystems.ItemDescriptor{Version: serialized.Version, Item: &s}
	default:
		return subsystems.ItemDescriptor{Version: serialized.Version, Item: nil}
	}
}
