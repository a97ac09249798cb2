package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/avelkova/studiofit/api/web"
	"github.com/avelkova/studiofit/metrics"
	"github.com/zenazn/goji/web/mutil"
)

func Metrics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			start := time.Now()
			lw := mutil.WrapWriter(w)

			err := handler(ctx, lw, r)

			metrics.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(lw.Status())).Inc()
			metrics.RequestDuration.Observe(time.Since(start).Seconds())
			return err
		}
		return h
	}
	return m
}
