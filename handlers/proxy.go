package handlers

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/rs/zerolog"
)

// NewForumProxy forwards requests to the forum, keeping the client's Host
// header so the CMS builds links for its public name.
func NewForumProxy(upstream *url.URL, log zerolog.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("forum upstream unreachable")
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}
