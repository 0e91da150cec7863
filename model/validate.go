package model

import (
	"errors"
	"fmt"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/multierr"
)

const (
	DefaultMethod             = "GET"
	DefaultExpectedStatusCode = 200
	DefaultInterval           = 60
	DefaultFolderName         = "New Folder"
)

// ApplyDefaults fills unset endpoint settings the way the entry form does.
func (n *Node) ApplyDefaults() {
	if n.Type == "" {
		n.Type = TypeEndpoint
	}
	if n.IsFolder() {
		if n.Name == "" {
			n.Name = DefaultFolderName
		}
		return
	}
	if n.Method == "" {
		n.Method = DefaultMethod
	}
	if n.ExpectedStatusCode == 0 {
		n.ExpectedStatusCode = DefaultExpectedStatusCode
	}
	if n.Interval == 0 {
		n.Interval = DefaultInterval
	}
	if n.LogLevel == "" {
		n.LogLevel = LogAll
	}
	if n.Auth == nil {
		n.Auth = &Auth{Type: AuthNone}
	}
	if n.Body == nil {
		n.Body = &Body{Type: BodyNone}
	}
	if n.Name == "" {
		n.Name = n.URL
	}
}

var httpURL = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
})

func methodValues() []interface{} {
	out := make([]interface{}, 0, len(Methods))
	for _, m := range Methods {
		out = append(out, m)
	}
	return out
}

// Validate checks a node before it enters the store.
func (n *Node) Validate() error {
	endpoint := n.IsEndpoint()
	err := validation.ValidateStruct(n,
		validation.Field(&n.Type, validation.Required, validation.In(TypeEndpoint, TypeFolder)),
		validation.Field(&n.URL, validation.When(endpoint, validation.Required, httpURL)),
		validation.Field(&n.Method, validation.When(endpoint, validation.Required, validation.In(methodValues()...))),
		validation.Field(&n.Interval, validation.When(endpoint, validation.Required, validation.Min(1))),
		validation.Field(&n.ExpectedStatusCode, validation.When(endpoint, validation.Min(100), validation.Max(599))),
		validation.Field(&n.LogLevel, validation.When(endpoint, validation.In(LogAll, LogError, LogNone))),
	)
	if endpoint && n.Auth != nil {
		err = multierr.Append(err, n.Auth.Validate())
	}
	if endpoint && n.Body != nil {
		err = multierr.Append(err, validation.ValidateStruct(n.Body,
			validation.Field(&n.Body.Type, validation.In(BodyNone, BodyRaw)),
		))
	}
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", n.Type, n.Name, err)
	}
	return nil
}

func (a *Auth) Validate() error {
	apiKey := a.Type == AuthAPIKey
	return validation.ValidateStruct(a,
		validation.Field(&a.Type, validation.In(AuthNone, AuthAPIKey, AuthBasic, AuthBearer, AuthOAuth2, AuthAWSV4, AuthOAuth1)),
		validation.Field(&a.Key, validation.When(apiKey, validation.Required)),
		validation.Field(&a.Placement, validation.When(apiKey, validation.In(PlacementHeader, PlacementQuery))),
		validation.Field(&a.Username, validation.When(a.Type == AuthBasic, validation.Required)),
	)
}
