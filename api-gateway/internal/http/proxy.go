package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"github.com/kirangajul/e-commerce-microservices/pkg/circuitbreaker"
	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"github.com/kirangajul/e-commerce-microservices/pkg/metrics"
	"go.uber.org/zap"
)

// Upstream is one backend service and the path prefixes it owns.
type Upstream struct {
	Name     string
	BaseURL  string
	Prefixes []string
}

var errServerFault = errors.New("upstream server error")

// breakerTransport trips when an upstream keeps failing. 5xx replies are
// counted as failures but still passed through to the client.
type breakerTransport struct {
	next    http.RoundTripper
	breaker *circuitbreaker.Breaker[*http.Response]
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	res, err := t.breaker.Execute(func() (*http.Response, error) {
		res, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if res.StatusCode >= http.StatusInternalServerError {
			return res, errServerFault
		}
		return res, nil
	})
	if errors.Is(err, errServerFault) {
		return res, nil
	}
	return res, err
}

func newUpstreamProxy(u Upstream, transport http.RoundTripper, breakerCfg circuitbreaker.Config, m *metrics.Remote, log *zap.Logger) (http.Handler, error) {
	target, err := url.Parse(u.BaseURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("upstream %s: invalid base url %q", u.Name, u.BaseURL)
	}

	breakerCfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if id := httpx.RequestIDFromContext(pr.In.Context()); id != "" {
				pr.Out.Header.Set(httpx.RequestIDHeader, id)
			}
		},
		Transport: &breakerTransport{
			next:    transport,
			breaker: circuitbreaker.New[*http.Response](u.Name, breakerCfg, log),
		},
		ModifyResponse: func(res *http.Response) error {
			m.Inc(u.Name, strconv.Itoa(res.StatusCode/100)+"xx")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			status, code := classifyProxyError(err)
			m.Inc(u.Name, code)
			logger.FromContext(r.Context()).Warn("proxy request failed",
				zap.String("upstream", u.Name),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			httpx.RespondStatus(w, status, code, http.StatusText(status))
		},
	}

	return rp, nil
}

func classifyProxyError(err error) (int, string) {
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		return http.StatusServiceUnavailable, "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusBadGateway, "upstream_unavailable"
	}
}
