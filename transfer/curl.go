package transfer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/amartya2002/uptime-checker-core/model"
)

// ErrNoURL is returned when a cURL command contains nothing that looks like a URL.
var ErrNoURL = errors.New("no URL found in cURL command")

var lineContinuation = regexp.MustCompile(`\\\r?\n`)

// flags whose value is consumed but has no meaning for a monitor entry
var ignoredValueFlags = map[string]bool{
	"-o": true, "--output": true, "-m": true, "--max-time": true, "--connect-timeout": true,
	"-w": true, "--write-out": true, "-x": true, "--proxy": true, "--retry": true,
	"-F": true, "--form": true, "--cacert": true, "--cert": true, "--key": true,
	"--resolve": true, "-T": true, "--upload-file": true,
}

// ParseCurl extracts method, URL, query params, headers, body and auth from one
// cURL command line. Unknown flags are ignored.
func ParseCurl(command string) (model.Node, error) {
	line := lineContinuation.ReplaceAllString(strings.TrimSpace(command), " ")
	args, err := shellwords.Parse(line)
	if err != nil {
		return model.Node{}, fmt.Errorf("parse cURL command: %w", err)
	}
	if len(args) > 0 && args[0] == "curl" {
		args = args[1:]
	}

	var (
		method     string
		rawURL     string
		positional []string
		headers    = map[string]string{}
		data       []string
		auth       *model.Auth
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		value := func() string {
			if i+1 < len(args) {
				i++
				return args[i]
			}
			return ""
		}

		// --flag=value
		if strings.HasPrefix(arg, "--") {
			if name, v, ok := strings.Cut(arg, "="); ok {
				arg = name
				args = append(args[:i+1], append([]string{v}, args[i+1:]...)...)
			}
		}
		// -XPOST, -HName:v
		if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' && strings.ContainsAny(arg[1:2], "XHdu") {
			args = append(args[:i+1], append([]string{arg[2:]}, args[i+1:]...)...)
			arg = arg[:2]
		}

		switch arg {
		case "-X", "--request":
			method = strings.ToUpper(value())
		case "-H", "--header":
			if k, v, ok := strings.Cut(value(), ":"); ok {
				headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii", "--data-urlencode":
			data = append(data, value())
		case "--json":
			data = append(data, value())
			headers["Content-Type"] = "application/json"
			headers["Accept"] = "application/json"
		case "-u", "--user":
			user, pass, _ := strings.Cut(value(), ":")
			auth = &model.Auth{Type: model.AuthBasic, Username: user, Password: pass}
		case "-A", "--user-agent":
			headers["User-Agent"] = value()
		case "-b", "--cookie":
			headers["Cookie"] = value()
		case "-e", "--referer":
			headers["Referer"] = value()
		case "--url":
			rawURL = value()
		case "-I", "--head":
			method = "HEAD"
		default:
			if ignoredValueFlags[arg] {
				value()
				continue
			}
			if !strings.HasPrefix(arg, "-") {
				positional = append(positional, arg)
			}
		}
	}

	if rawURL == "" {
		rawURL = pickURL(positional)
	}
	if rawURL == "" {
		return model.Node{}, ErrNoURL
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return model.Node{}, fmt.Errorf("%w: %q is not a valid URL", ErrNoURL, rawURL)
	}

	params, err := splitQuery(u.RawQuery)
	if err != nil {
		return model.Node{}, fmt.Errorf("parse query string: %w", err)
	}
	u.RawQuery = ""
	u.Fragment = ""

	for k, v := range headers {
		if !strings.EqualFold(k, "Authorization") {
			continue
		}
		if a := authFromHeader(v); a != nil {
			auth = a
			delete(headers, k)
		}
	}

	if method == "" {
		method = "GET"
		if len(data) > 0 {
			method = "POST"
		}
	}

	n := model.Node{
		Type:        model.TypeEndpoint,
		Name:        u.Host + u.Path,
		URL:         u.String(),
		Method:      method,
		QueryParams: params,
		Auth:        auth,
	}
	if len(headers) > 0 {
		n.Headers = headers
	}
	if len(data) > 0 {
		n.Body = &model.Body{Type: model.BodyRaw, Content: strings.Join(data, "&")}
	}
	n.ApplyDefaults()
	return n, nil
}

func pickURL(positional []string) string {
	for _, p := range positional {
		if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
			return p
		}
	}
	if len(positional) > 0 {
		return positional[0]
	}
	return ""
}

// splitQuery keeps parameter order, which url.Values does not.
func splitQuery(raw string) ([]model.QueryParam, error) {
	if raw == "" {
		return nil, nil
	}
	var params []model.QueryParam
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, err
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, err
		}
		params = append(params, model.QueryParam{Key: key, Value: value})
	}
	return params, nil
}

func authFromHeader(v string) *model.Auth {
	scheme, cred, ok := strings.Cut(strings.TrimSpace(v), " ")
	if !ok {
		return nil
	}
	cred = strings.TrimSpace(cred)
	switch strings.ToLower(scheme) {
	case "bearer":
		return &model.Auth{Type: model.AuthBearer, Token: cred}
	case "basic":
		decoded, err := base64.StdEncoding.DecodeString(cred)
		if err != nil {
			return nil
		}
		user, pass, _ := strings.Cut(string(decoded), ":")
		return &model.Auth{Type: model.AuthBasic, Username: user, Password: pass}
	}
	return nil
}

// ToCurl renders an endpoint as a single-line shell command.
func ToCurl(n model.Node) string {
	parts := []string{"curl"}

	method := strings.ToUpper(n.Method)
	if method != "" && method != "GET" {
		parts = append(parts, "-X", method)
	}
	parts = append(parts, shellQuote(curlURL(n)))

	keys := make([]string, 0, len(n.Headers))
	for k := range n.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, "-H", shellQuote(k+": "+n.Headers[k]))
	}

	if a := n.Auth; a != nil {
		switch a.Type {
		case model.AuthBasic:
			parts = append(parts, "-u", shellQuote(a.Username+":"+a.Password))
		case model.AuthBearer:
			parts = append(parts, "-H", shellQuote("Authorization: Bearer "+a.Token))
		case model.AuthOAuth2:
			prefix := a.HeaderPrefix
			if prefix == "" {
				prefix = "Bearer"
			}
			parts = append(parts, "-H", shellQuote("Authorization: "+prefix+" "+a.Token))
		case model.AuthAPIKey:
			if a.Placement != model.PlacementQuery && a.Key != "" {
				parts = append(parts, "-H", shellQuote(a.Key+": "+a.Value))
			}
		}
	}

	if n.Body != nil && n.Body.Type == model.BodyRaw && n.Body.Content != "" {
		parts = append(parts, "--data-raw", shellQuote(n.Body.Content))
	}
	return strings.Join(parts, " ")
}

func curlURL(n model.Node) string {
	var pairs []string
	for _, p := range n.QueryParams {
		if p.Key == "" {
			continue
		}
		pairs = append(pairs, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	if a := n.Auth; a != nil && a.Type == model.AuthAPIKey && a.Placement == model.PlacementQuery && a.Key != "" {
		pairs = append(pairs, url.QueryEscape(a.Key)+"="+url.QueryEscape(a.Value))
	}
	if len(pairs) == 0 {
		return n.URL
	}
	sep := "?"
	if strings.Contains(n.URL, "?") {
		sep = "&"
	}
	return n.URL + sep + strings.Join(pairs, "&")
}

// shellQuote wraps s in single quotes, escaping embedded quotes as '\''.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
