package ldmodel

import "encoding/json"

// MarshalFlag serializes a Flag to its wire JSON form. Grounded on the SDK's
// ldmodel.MarshalFlag/DataModel JSON tags, but implemented directly against encoding/json:
// go-jsonstream/v3's writer half (jwriter) isn't available anywhere in the reference corpus
// this module was built from, only the reader half (jreader) is, so the streaming envelope
// parser in internal/datasource uses jreader while the flag/segment data model itself leans on
// encoding/json plus ldvalue.Value's existing Marshal/UnmarshalJSON.
func MarshalFlag(f Flag) ([]byte, error) {
	return json.Marshal(f)
}

// UnmarshalFlag parses a Flag from its wire JSON form.
func UnmarshalFlag(data []byte) (Flag, error) {
	var f Flag
	if err := json.Unmarshal(data, &f); err != nil {
		return Flag{}, err
	}
	f.Preprocess()
	return f, nil
}

// MarshalSegment serializes a Segment to its wire JSON form.
func MarshalSegment(s Segment) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSegment parses a Segment from its wire JSON form.
func UnmarshalSegment(data []byte) (Segment, error) {
	var s Segment
	if err := json.Unmarshal(data, &s); err != nil {
		return Segment{}, err
	}
	s.Preprocess()
	return s, nil
}
