package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/logger"
)

var defaultLogger = logger.NewLogger("API")

type endpointLoggerFields struct {
	Method string `json:"method"`
	Url    string `json:"url"`
	Tid    string `json:"tid"`
}

const RequestInfoFieldsKey = "request_info"

func makeRequestLogger(base zerolog.Logger, request *http.Request, tid string) zerolog.Logger {
	fields := endpointLoggerFields{
		Method: request.Method,
		Url:    request.URL.String(),
		Tid:    tid,
	}
	return base.With().Interface(RequestInfoFieldsKey, fields).Logger()
}
