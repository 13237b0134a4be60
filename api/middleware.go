package api

import (
	"net/http"
	"time"

	apierrors "github.com/soltip/soltip/errors"
	"github.com/soltip/soltip/exception"
	"github.com/soltip/soltip/logx"
	"github.com/soltip/soltip/monitoring"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// route wraps a handler with method enforcement, panic recovery, request
// logging and the latency histogram.
func (s *APIServer) route(name, method string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := monitoring.NewHTTPTimer(name)
		defer timer.ObserveDuration()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		defer func() {
			if p := recover(); p != nil {
				exception.LogPanic("HTTP "+name, p)
				apierrors.WriteError(rec, apierrors.NewError(apierrors.ErrCodeInternal, apierrors.ErrMsgInternal))
			}
			logx.Debug("HTTP", r.Method, " ", r.URL.Path, " ", rec.status, " ", time.Since(started))
		}()

		if r.Method != method {
			rec.Header().Set("Allow", method)
			apierrors.WriteError(rec, apierrors.NewError(apierrors.ErrCodeMethodNotAllowed, apierrors.ErrMsgMethodNotAllowed))
			return
		}
		h(rec, r)
	})
}
