// Package model defines the monitored item tree and check records.
package model

import (
	"time"
)

type NodeType string

const (
	TypeEndpoint NodeType = "url"
	TypeFolder   NodeType = "folder"
)

type Status string

const (
	StatusUnset   Status = ""
	StatusUp      Status = "up"
	StatusDown    Status = "down"
	StatusUnknown Status = "unknown" // folders only
)

// LogLevel controls which check results an endpoint writes to the log store.
type LogLevel string

const (
	LogAll   LogLevel = "all"
	LogError LogLevel = "error"
	LogNone  LogLevel = "none"
)

// Methods lists the HTTP verbs an endpoint may use.
var Methods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS", "HEAD"}

type QueryParam struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthAPIKey AuthType = "apiKey"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
	AuthOAuth2 AuthType = "oauth2"
	AuthAWSV4  AuthType = "awsV4"
	AuthOAuth1 AuthType = "oauth1"
)

const (
	PlacementHeader = "header"
	PlacementQuery  = "query"
)

// Auth is a tagged variant; only the fields of the active Type are meaningful.
// awsV4 and oauth1 settings are stored but never applied to requests.
type Auth struct {
	Type AuthType `json:"type"`

	// apiKey
	Key       string `json:"key,omitempty"`
	Value     string `json:"value,omitempty"`
	Placement string `json:"placement,omitempty"`

	// basic
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// bearer, oauth2
	Token        string `json:"token,omitempty"`
	HeaderPrefix string `json:"headerPrefix,omitempty"`

	AWSV4  *AWSV4Auth  `json:"awsV4,omitempty"`
	OAuth1 *OAuth1Auth `json:"oauth1,omitempty"`
}

type AWSV4Auth struct {
	AccessKey    string `json:"accessKey"`
	SecretKey    string `json:"secretKey"`
	Region       string `json:"region"`
	Service      string `json:"service"`
	SessionToken string `json:"sessionToken,omitempty"`
}

type OAuth1Auth struct {
	ConsumerKey     string `json:"consumerKey"`
	ConsumerSecret  string `json:"consumerSecret"`
	Token           string `json:"token,omitempty"`
	TokenSecret     string `json:"tokenSecret,omitempty"`
	SignatureMethod string `json:"signatureMethod,omitempty"`
}

type BodyType string

const (
	BodyNone BodyType = "none"
	BodyRaw  BodyType = "raw"
)

type Body struct {
	Type    BodyType `json:"type"`
	Content string   `json:"content,omitempty"`
}

// Node is either a folder or an endpoint. Endpoint fields are left zero on folders.
type Node struct {
	ID        string   `json:"id"`
	Type      NodeType `json:"type"`
	Name      string   `json:"name"`
	ParentID  *string  `json:"parentId"`
	SortOrder int      `json:"sortOrder"`

	URL                string            `json:"url,omitempty"`
	Method             string            `json:"method,omitempty"`
	Interval           int               `json:"interval,omitempty"` // seconds
	ExpectedStatusCode int               `json:"expectedStatusCode,omitempty"`
	Headers            map[string]string `json:"headers,omitempty"`
	QueryParams        []QueryParam      `json:"queryParams,omitempty"`
	Auth               *Auth             `json:"auth,omitempty"`
	Body               *Body             `json:"body,omitempty"`
	LastStatus         Status            `json:"lastStatus,omitempty"`
	LastChecked        *time.Time        `json:"lastChecked,omitempty"`
	LogLevel           LogLevel          `json:"logLevel,omitempty"`
	IsPaused           bool              `json:"isPaused"`
}

func (n Node) IsFolder() bool   { return n.Type == TypeFolder }
func (n Node) IsEndpoint() bool { return n.Type == TypeEndpoint }

// InParent reports whether n sits directly under parentID (nil = root).
func (n Node) InParent(parentID *string) bool {
	if n.ParentID == nil || parentID == nil {
		return n.ParentID == nil && parentID == nil
	}
	return *n.ParentID == *parentID
}

// Clone returns a deep copy so callers cannot alias store state.
func (n Node) Clone() Node {
	c := n
	if n.ParentID != nil {
		p := *n.ParentID
		c.ParentID = &p
	}
	if n.Headers != nil {
		c.Headers = make(map[string]string, len(n.Headers))
		for k, v := range n.Headers {
			c.Headers[k] = v
		}
	}
	if n.QueryParams != nil {
		c.QueryParams = append([]QueryParam(nil), n.QueryParams...)
	}
	if n.Auth != nil {
		a := *n.Auth
		if a.AWSV4 != nil {
			aws := *a.AWSV4
			a.AWSV4 = &aws
		}
		if a.OAuth1 != nil {
			o := *a.OAuth1
			a.OAuth1 = &o
		}
		c.Auth = &a
	}
	if n.Body != nil {
		b := *n.Body
		c.Body = &b
	}
	if n.LastChecked != nil {
		t := *n.LastChecked
		c.LastChecked = &t
	}
	return c
}

// ResetStatus clears the check state, used for copies and imports.
func (n *Node) ResetStatus() {
	n.LastStatus = StatusUnset
	n.LastChecked = nil
}

// NodePatch carries a partial update; nil fields keep their stored values.
type NodePatch struct {
	Name               *string            `json:"name,omitempty"`
	URL                *string            `json:"url,omitempty"`
	Method             *string            `json:"method,omitempty"`
	Interval           *int               `json:"interval,omitempty"`
	ExpectedStatusCode *int               `json:"expectedStatusCode,omitempty"`
	Headers            *map[string]string `json:"headers,omitempty"`
	QueryParams        *[]QueryParam      `json:"queryParams,omitempty"`
	Auth               *Auth              `json:"auth,omitempty"`
	Body               *Body              `json:"body,omitempty"`
	LogLevel           *LogLevel          `json:"logLevel,omitempty"`
	IsPaused           *bool              `json:"isPaused,omitempty"`
}

// Apply merges p into n.
func (p NodePatch) Apply(n *Node) {
	if p.Name != nil {
		n.Name = *p.Name
	}
	if p.URL != nil {
		n.URL = *p.URL
	}
	if p.Method != nil {
		n.Method = *p.Method
	}
	if p.Interval != nil {
		n.Interval = *p.Interval
	}
	if p.ExpectedStatusCode != nil {
		n.ExpectedStatusCode = *p.ExpectedStatusCode
	}
	if p.Headers != nil {
		n.Headers = *p.Headers
	}
	if p.QueryParams != nil {
		n.QueryParams = *p.QueryParams
	}
	if p.Auth != nil {
		a := *p.Auth
		n.Auth = &a
	}
	if p.Body != nil {
		b := *p.Body
		n.Body = &b
	}
	if p.LogLevel != nil {
		n.LogLevel = *p.LogLevel
	}
	if p.IsPaused != nil {
		n.IsPaused = *p.IsPaused
	}
}

// CheckResult is the outcome of one check. A failed check is a result, not an error.
type CheckResult struct {
	Status     Status `json:"status"`
	StatusCode *int   `json:"statusCode,omitempty"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// LogRecord is one persisted check result.
type LogRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	ItemID     string    `json:"itemId"`
	ItemName   string    `json:"itemName"`
	Status     Status    `json:"status"`
	StatusCode *int      `json:"statusCode,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Error      string    `json:"error,omitempty"`
}

// ShouldLog reports whether a result with status s is recorded under level l.
func (l LogLevel) ShouldLog(s Status) bool {
	switch l {
	case LogNone:
		return false
	case LogError:
		return s == StatusDown
	default:
		return true
	}
}

// StrPtr is a small helper for optional ids.
func StrPtr(s string) *string { return &s }
