package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/corpus"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/pipeline"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

const (
	FormatParam = "format"
	FormatJSON  = "json"
)

type Request struct {
	Pipeline pipeline.Pipeline
	Boundary types.Boundary
	// Logger defaults to the package API logger
	Logger *zerolog.Logger
}

type Response struct {
	Tid              string               `json:"tid"`
	ModelFingerprint uint64               `json:"model_fingerprint"`
	Sentences        [][]types.TaggedWord `json:"sentences"`
	Unterminated     []string             `json:"unterminated,omitempty"`
}

// Routes registers the tagging and health endpoints on mux.
func (req *Request) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/tag", req.ProcessData)
	mux.HandleFunc("/health", Health)
}

func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	base := defaultLogger
	if req.Logger != nil {
		base = *req.Logger
	}
	tid := uuid.NewString()
	logger := makeRequestLogger(base, r, tid)

	if r.Method != http.MethodPost {
		logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	msg, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	request := pipeline.Request{
		Tid:  tid,
		Text: string(msg),
	}
	logger.Info().Msg("Starting pipeline for request from API")
	resp := <-req.Pipeline(r.Context(), request)
	if resp.Err != nil {
		logger.Err(resp.Err).Int("status", http.StatusInternalServerError).Msg("Pipeline failed")
		http.Error(w, resp.Err.Error(), http.StatusInternalServerError)
		return
	}

	var body bytes.Buffer
	if r.URL.Query().Get(FormatParam) == FormatJSON {
		w.Header().Set("Content-Type", "application/json")
		sentences := resp.Sentences
		if sentences == nil {
			sentences = [][]types.TaggedWord{}
		}
		err = json.NewEncoder(&body).Encode(Response{
			Tid:              resp.Tid,
			ModelFingerprint: resp.ModelFingerprint,
			Sentences:        sentences,
			Unterminated:     resp.Unterminated,
		})
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		err = corpus.WriteTagged(&body, resp.Pairs(req.Boundary))
	}
	if err != nil {
		logger.Err(err).Int("status", http.StatusInternalServerError).Msg("Could not encode response")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(body.Bytes())
	logger.Info().Int("status", http.StatusOK).Int("sentences", len(resp.Sentences)).Msg("Finished processing request")
}
