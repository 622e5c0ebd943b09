package ffcore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchflag/ffcore/ldcomponents"
	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/ldreason"
	"github.com/launchflag/ffcore/ldvalue"
	"github.com/launchflag/ffcore/subsystems"
)

// fakeDataSourceFactory publishes a fixed set of flags synchronously on Start, without talking
// to the network, so Client tests don't depend on streaming/polling internals.
type fakeDataSourceFactory struct {
	flags map[string]*ldmodel.Flag
}

func (f fakeDataSourceFactory) CreateDataSource(
	clientContext subsystems.ClientContext, updates subsystems.DataSourceUpdateSink,
) (subsystems.DataSource, error) {
	return &fakeDataSource{flags: f.flags, updates: updates}, nil
}

type fakeDataSource struct {
	flags       map[string]*ldmodel.Flag
	updates     subsystems.DataSourceUpdateSink
	initialized bool
}

func (f *fakeDataSource) Start(ctx context.Context, closeWhenReady chan<- struct{}) {
	allData := map[subsystems.DataKind]map[string]subsystems.ItemDescriptor{
		ldmodel.Flags:    {},
		ldmodel.Segments: {},
	}
	for key, flag := range f.flags {
		allData[ldmodel.Flags][key] = subsystems.ItemDescriptor{Version: flag.Version, Item: flag}
	}
	f.updates.Init(allData)
	f.updates.UpdateStatus(subsystems.DataSourceValid, nil)
	f.initialized = true
	close(closeWhenReady)
}

func (f *fakeDataSource) IsInitialized() bool { return f.initialized }
func (f *fakeDataSource) Close() error        { return nil }

func boolFlag(key string, variation bool) *ldmodel.Flag {
	f := &ldmodel.Flag{
		Key:         key,
		Version:     1,
		On:          true,
		Variations:  []ldvalue.Value{ldvalue.Bool(variation), ldvalue.Bool(!variation)},
		Fallthrough: ldmodel.VariationOrRollout{Variation: intPtr(0)},
	}
	f.Preprocess()
	return f
}

func intPtr(i int) *int { return &i }

func newTestClient(t *testing.T, flags map[string]*ldmodel.Flag) *Client {
	t.Helper()
	config := Config{
		DataSource: fakeDataSourceFactory{flags: flags},
		Events:     ldcomponents.NoEvents(),
		Logging:    ldcomponents.NoLogging(),
	}
	client, err := MakeClient("test-sdk-key", config, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestBoolVariationReturnsFlagValue(t *testing.T) {
	client := newTestClient(t, map[string]*ldmodel.Flag{"my-flag": boolFlag("my-flag", true)})
	assert.True(t, client.BoolVariation("my-flag", ldcontext.New("user-1"), false))
}

func TestBoolVariationReturnsDefaultForUnknownFlag(t *testing.T) {
	client := newTestClient(t, map[string]*ldmodel.Flag{})
	assert.True(t, client.BoolVariation("missing-flag", ldcontext.New("user-1"), true))
}

func TestEvaluateUnknownFlagReportsErrorReason(t *testing.T) {
	client := newTestClient(t, map[string]*ldmodel.Flag{})
	detail := client.Evaluate("missing-flag", ldcontext.New("user-1"), ldvalue.Bool(false))
	assert.True(t, detail.Reason.IsError())
}

func TestAllFlagsStateIncludesEveryFlag(t *testing.T) {
	client := newTestClient(t, map[string]*ldmodel.Flag{
		"a": boolFlag("a", true),
		"b": boolFlag("b", false),
	})
	state := client.AllFlagsState(ldcontext.New("user-1"), false)
	assert.True(t, state.IsValid())
	values := state.ToValuesMap()
	assert.Equal(t, ldvalue.Bool(true), values["a"])
	assert.Equal(t, ldvalue.Bool(false), values["b"])
}

func TestAddHookInvokedAroundEvaluation(t *testing.T) {
	client := newTestClient(t, map[string]*ldmodel.Flag{"my-flag": boolFlag("my-flag", true)})

	var before, after []string
	client.AddHook(recordingHook{before: &before, after: &after})

	client.BoolVariation("my-flag", ldcontext.New("user-1"), false)

	assert.Equal(t, []string{"my-flag"}, before)
	assert.Equal(t, []string{"my-flag"}, after)
}

type recordingHook struct {
	before *[]string
	after  *[]string
}

func (h recordingHook) BeforeEvaluation(key string, evalContext ldcontext.Context) {
	*h.before = append(*h.before, key)
}

func (h recordingHook) AfterEvaluation(key string, evalContext ldcontext.Context, detail ldreason.Detail) {
	*h.after = append(*h.after, key)
}

func TestFlagTrackerReceivesFlagChangeOnUpsert(t *testing.T) {
	client := newTestClient(t, map[string]*ldmodel.Flag{"my-flag": boolFlag("my-flag", true)})

	ch := client.FlagTracker().AddFlagChangeListener()
	defer client.FlagTracker().RemoveFlagChangeListener(ch)

	updated := boolFlag("my-flag", false)
	updated.Version = 2
	client.sourceUpdates.Upsert(ldmodel.Flags, "my-flag", subsystems.ItemDescriptor{Version: 2, Item: updated})

	select {
	case event := <-ch:
		assert.Equal(t, "my-flag", event.Key)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for flag change event")
	}
}
