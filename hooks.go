package ffcore

import (
	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldreason"
)

// Hook is evaluation-lifecycle instrumentation: tracing, metrics, or logging integrations
// register a Hook to observe every Evaluate call without the client depending on any specific
// backend. Grounded on the SDK's ldhooks package, trimmed to the two callbacks documented as the
// minimum useful surface (stage-specific data and a full hook-chain "Series" API are out of scope).
type Hook interface {
	// BeforeEvaluation is called before the flag named by key is evaluated for evalContext.
	BeforeEvaluation(key string, evalContext ldcontext.Context)
	// AfterEvaluation is called once detail has been computed and its analytics event, if any,
	// has been sent.
	AfterEvaluation(key string, evalContext ldcontext.Context, detail ldreason.Detail)
}
