package apiclient

import (
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
)

// Values converts params into query values. params may be nil, url.Values,
// or a struct tagged for go-querystring. Blank values are dropped.
func Values(params any) (url.Values, error) {
	switch v := params.(type) {
	case nil:
		return url.Values{}, nil
	case url.Values:
		return Clean(v), nil
	case map[string]string:
		out := url.Values{}
		for key, value := range v {
			out.Set(key, value)
		}
		return Clean(out), nil
	}
	vals, err := query.Values(params)
	if err != nil {
		return nil, err
	}
	return Clean(vals), nil
}

// Clean returns a copy of values without keys whose values are all blank.
func Clean(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, list := range values {
		for _, item := range list {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			out.Add(key, item)
		}
	}
	return out
}
