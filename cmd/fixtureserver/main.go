// Command fixtureserver runs a Client against a local flag data file instead of a live streaming
// connection, for manual smoke testing. Grounded on the SDK's cmd/repro (a minimal throwaway
// main that stands a client up and watches its status) combined with the chi/zerolog HTTP-server
// idiom used elsewhere in the reference corpus this package's stack is drawn from.
package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	ffcore "github.com/launchflag/ffcore"
	"github.com/launchflag/ffcore/ldcomponents"
	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldvalue"
)

func main() {
	var (
		dataFile = flag.String("data-file", "testdata/flags.yaml", "path to a YAML/JSON flag data file")
		addr     = flag.String("addr", ":8765", "address to listen on")
		watch    = flag.Bool("watch", true, "reload the data file on change")
	)
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	config := ffcore.Config{
		DataSource: ldcomponents.FileDataSource(*dataFile).Watch(*watch),
		Events:     ldcomponents.NoEvents(),
	}

	client, err := ffcore.MakeClient("fixtureserver", config, 5*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("client failed to initialize")
	}
	defer client.Close()

	log.Info().Str("file", *dataFile).Bool("initialized", client.Initialized()).Msg("loaded flag data")

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !client.Initialized() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/flags", func(w http.ResponseWriter, req *http.Request) {
		evalContext := contextFromRequest(req)
		state := client.AllFlagsState(evalContext, req.URL.Query().Has("withReasons"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(state)
	})

	r.Get("/flags/{key}", func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "key")
		evalContext := contextFromRequest(req)
		detail := client.Evaluate(key, evalContext, ldvalue.Null())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(detail)
	})

	log.Info().Str("addr", *addr).Msg("fixtureserver listening")
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// contextFromRequest builds an evaluation context from a "user" query parameter, defaulting to
// an anonymous fixture key so every endpoint works without one.
func contextFromRequest(req *http.Request) ldcontext.Context {
	key := req.URL.Query().Get("user")
	if key == "" {
		key = "fixtureserver-anonymous"
	}
	return ldcontext.New(key)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		log.Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
