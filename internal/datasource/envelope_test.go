package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchflag/ffcore/ldmodel"
)

func TestParsePutDataParsesFlagsAndSegments(t *testing.T) {
	body := []byte(`{"data":{"flags":{"flag1":{"key":"flag1","version":3,"on":true}},"segments":{"seg1":{"key":"seg1","version":1}}}}`)
	put, err := parsePutData(body)
	require.NoError(t, err)

	flag := put.Data[ldmodel.Flags]["flag1"]
	require.NotNil(t, flag.Item)
	assert.Equal(t, "flag1", flag.Item.(*ldmodel.Flag).Key)
	assert.Equal(t, 3, flag.Version)

	segment := put.Data[ldmodel.Segments]["seg1"]
	require.NotNil(t, segment.Item)
	assert.Equal(t, "seg1", segment.Item.(*ldmodel.Segment).Key)
}

func TestParsePatchDataParsesFlagPath(t *testing.T) {
	body := []byte(`{"path":"/flags/flag1","data":{"key":"flag1","version":5,"on":true}}`)
	patch, err := parsePatchData(body)
	require.NoError(t, err)
	assert.Equal(t, ldmodel.Flags, patch.Kind)
	assert.Equal(t, "flag1", patch.Key)
	assert.Equal(t, 5, patch.Data.Version)
}

func TestParseDeleteDataParsesSegmentPath(t *testing.T) {
	body := []byte(`{"path":"/segments/seg1","version":9}`)
	del, err := parseDeleteData(body)
	require.NoError(t, err)
	assert.Equal(t, ldmodel.Segments, del.Kind)
	assert.Equal(t, "seg1", del.Key)
	assert.Equal(t, 9, del.Version)
}

func TestIsRecoverableStatusMatchesClassification(t *testing.T) {
	assert.True(t, isRecoverableStatus(400))
	assert.True(t, isRecoverableStatus(408))
	assert.True(t, isRecoverableStatus(429))
	assert.True(t, isRecoverableStatus(500))
	assert.False(t, isRecoverableStatus(401))
	assert.False(t, isRecoverableStatus(403))
}
