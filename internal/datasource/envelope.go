// Package datasource implements the streaming (SSE) and polling data sources. Grounded on
// the SDK's internal/datasource/streaming_data_source.go and polling_data_source.go.
package datasource

import (
	"encoding/json"
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"

	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/subsystems"
)

// putData is the full-dataset payload of a streaming "put" event or a polling response.
type putData struct {
	Data map[subsystems.DataKind]map[string]subsystems.ItemDescriptor
}

// patchData is a single-item upsert from a streaming "patch" event.
type patchData struct {
	Kind subsystems.DataKind
	Key  string
	Data subsystems.ItemDescriptor
}

// deleteData is a single-item tombstone from a streaming "delete" event.
type deleteData struct {
	Kind    subsystems.DataKind
	Key     string
	Version int
}

// anyValueToJSON walks an arbitrary JSON value read via jreader.Reader.Any() back into a Go
// native value (map/slice/scalar), so it can be re-marshaled with encoding/json and handed to
// ldmodel's Flag/Segment unmarshalers. jreader is used for the streaming/polling envelope shape
//, while the flag/segment data model itself stays on
// encoding/json per ldmodel's serialization strategy.
func anyValueToJSON(r *jreader.Reader) (interface{}, error) {
	v := r.Any()
	if err := r.Error(); err != nil {
		return nil, err
	}
	switch v.Kind {
	case jreader.NullValue:
		return nil, nil
	case jreader.BoolValue:
		return v.Bool, nil
	case jreader.NumberValue:
		return v.Number, nil
	case jreader.StringValue:
		return v.String, nil
	case jreader.ArrayValue:
		var out []interface{}
		for arr := v.Array; arr.Next(); {
			elem, err := anyValueToJSON(r)
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, r.Error()
	case jreader.ObjectValue:
		out := map[string]interface{}{}
		for obj := v.Object; obj.Next(); {
			name := string(obj.Name())
			elem, err := anyValueToJSON(r)
			if err != nil {
				return nil, err
			}
			out[name] = elem
		}
		return out, r.Error()
	default:
		return nil, fmt.Errorf("unsupported JSON value kind %v", v.Kind)
	}
}

func kindFromName(name string) (subsystems.DataKind, bool) {
	switch name {
	case "flags":
		return ldmodel.Flags, true
	case "segments":
		return ldmodel.Segments, true
	default:
		return 0, false
	}
}

func itemFromAny(kind subsystems.DataKind, version int, value interface{}) (subsystems.ItemDescriptor, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return subsystems.ItemDescriptor{Version: -1}, err
	}
	switch kind {
	case ldmodel.Flags:
		f, err := ldmodel.UnmarshalFlag(raw)
		if err != nil {
			return subsystems.ItemDescriptor{Version: -1}, err
		}
		return subsystems.ItemDescriptor{Version: version, Item: &f}, nil
	case ldmodel.Segments:
		s, err := ldmodel.UnmarshalSegment(raw)
		if err != nil {
			return subsystems.ItemDescriptor{Version: -1}, err
		}
		return subsystems.ItemDescriptor{Version: version, Item: &s}, nil
	default:
		return subsystems.ItemDescriptor{Version: -1}, fmt.Errorf("unknown data kind %v", kind)
	}
}

// parsePutData parses a put event body: {"data": {"flags": {key: flagJSON, ...}, "segments":
// {key: segmentJSON, ...}}}. The polling endpoint returns the same shape without an SSE
// envelope around it.
func parsePutData(data []byte) (putData, error) {
	r := jreader.NewReader(data)
	result := putData{Data: map[subsystems.DataKind]map[string]subsystems.ItemDescriptor{
		ldmodel.Flags:    {},
		ldmodel.Segments: {},
	}}
	for top := r.Object(); top.Next(); {
		if string(top.Name()) != "data" {
			if err := r.SkipValue(); err != nil {
				return putData{}, err
			}
			continue
		}
		for obj := r.Object(); obj.Next(); {
			kind, ok := kindFromName(string(obj.Name()))
			if !ok {
				if err := r.SkipValue(); err != nil {
					return putData{}, err
				}
				continue
			}
			byKey := result.Data[kind]
			for items := r.Object(); items.Next(); {
				key := string(items.Name())
				value, err := anyValueToJSON(&r)
				if err != nil {
					return putData{}, err
				}
				version := versionFromAny(value)
				item, err := itemFromAny(kind, version, value)
				if err != nil {
					return putData{}, err
				}
				byKey[key] = item
			}
		}
	}
	if err := r.Error(); err != nil {
		return putData{}, err
	}
	return result, nil
}

// parsePatchData parses a patch event: {"path": "/flags/key", "data": flagJSON}.
func parsePatchData(data []byte) (patchData, error) {
	r := jreader.NewReader(data)
	var path string
	var value interface{}
	haveValue := false
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "path":
			path = r.String()
		case "data":
			v, err := anyValueToJSON(&r)
			if err != nil {
				return patchData{}, err
			}
			value = v
			haveValue = true
		default:
			if err := r.SkipValue(); err != nil {
				return patchData{}, err
			}
		}
	}
	if err := r.Error(); err != nil {
		return patchData{}, err
	}
	kind, key, ok := parsePath(path)
	if !ok || !haveValue {
		return patchData{Kind: 0, Key: "", Data: subsystems.ItemDescriptor{Version: -1}}, nil
	}
	version := versionFromAny(value)
	item, err := itemFromAny(kind, version, value)
	if err != nil {
		return patchData{}, err
	}
	return patchData{Kind: kind, Key: key, Data: item}, nil
}

// parseDeleteData parses a delete event: {"path": "/flags/key", "version": 5}.
func parseDeleteData(data []byte) (deleteData, error) {
	r := jreader.NewReader(data)
	var path string
	var version int
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "path":
			path = r.String()
		case "version":
			version = r.Int()
		default:
			if err := r.SkipValue(); err != nil {
				return deleteData{}, err
			}
		}
	}
	if err := r.Error(); err != nil {
		return deleteData{}, err
	}
	kind, key, ok := parsePath(path)
	if !ok {
		return deleteData{}, nil
	}
	return deleteData{Kind: kind, Key: key, Version: version}, nil
}

// parsePath splits a "/flags/key" or "/segments/key" path into (kind, key).
func parsePath(path string) (subsystems.DataKind, string, bool) {
	if len(path) < 2 || path[0] != '/' {
		return 0, "", false
	}
	rest := path[1:]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			kind, ok := kindFromName(rest[:i])
			if !ok {
				return 0, "", false
			}
			return kind, rest[i+1:], true
		}
	}
	return 0, "", false
}

func versionFromAny(value interface{}) int {
	m, ok := value.(map[string]interface{})
	if !ok {
		return 0
	}
	v, ok := m["version"].(float64)
	if !ok {
		return 0
	}
	return int(v)
}
