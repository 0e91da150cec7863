package uptime

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/amartya2002/uptime-checker-core/model"
)

// buildRequest turns an endpoint into an outgoing request: query params are merged
// into the URL, headers copied, and the active auth variant applied.
func buildRequest(ep model.Node) (*http.Request, error) {
	u, err := url.Parse(ep.URL)
	if err != nil {
		return nil, err
	}

	auth := ep.Auth
	if auth == nil {
		auth = &model.Auth{Type: model.AuthNone}
	}

	apiKeyInQuery := auth.Type == model.AuthAPIKey && auth.Placement == model.PlacementQuery && auth.Key != ""
	if len(ep.QueryParams) > 0 || apiKeyInQuery {
		q := u.Query()
		for _, p := range ep.QueryParams {
			if p.Key == "" {
				continue
			}
			q.Add(p.Key, p.Value)
		}
		if apiKeyInQuery {
			q.Set(auth.Key, auth.Value)
		}
		u.RawQuery = q.Encode()
	}

	method := strings.ToUpper(ep.Method)
	if method == "" {
		method = model.DefaultMethod
	}

	var body io.Reader
	if ep.Body != nil && ep.Body.Type == model.BodyRaw && ep.Body.Content != "" {
		body = strings.NewReader(ep.Body.Content)
	}

	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, v := range ep.Headers {
		req.Header.Set(k, v)
	}
	applyAuth(req, auth)
	return req, nil
}

func applyAuth(req *http.Request, auth *model.Auth) {
	switch auth.Type {
	case model.AuthBasic:
		req.SetBasicAuth(auth.Username, auth.Password)
	case model.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case model.AuthOAuth2:
		prefix := auth.HeaderPrefix
		if prefix == "" {
			prefix = "Bearer"
		}
		req.Header.Set("Authorization", prefix+" "+auth.Token)
	case model.AuthAPIKey:
		if auth.Placement != model.PlacementQuery && auth.Key != "" {
			req.Header.Set(auth.Key, auth.Value)
		}
	}
}
