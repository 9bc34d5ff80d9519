package spec

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Filter narrows the endpoints returned by Endpoints.
type Filter func(*filterConfig)

type filterConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[HttpMethod]struct{}
	pathRes     []*regexp.Regexp
	errs        []error
}

// WithIncludeTags keeps only endpoints that have at least one of the given tags.
func WithIncludeTags(tags []string) Filter {
	return func(c *filterConfig) {
		c.includeTags = addTags(c.includeTags, tags)
	}
}

// WithExcludeTags removes endpoints that have any of the given tags.
func WithExcludeTags(tags []string) Filter {
	return func(c *filterConfig) {
		c.excludeTags = addTags(c.excludeTags, tags)
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// WithMethods keeps only endpoints using one of the provided HTTP methods.
func WithMethods(methods []HttpMethod) Filter {
	return func(c *filterConfig) {
		for _, m := range methods {
			if c.methods == nil {
				c.methods = make(map[HttpMethod]struct{}, len(methods))
			}
			c.methods[HttpMethod(strings.ToLower(string(m)))] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only endpoints whose path matches at least one of the
// provided regular expressions. An invalid pattern makes Endpoints fail.
func WithPathPatterns(patterns []string) Filter {
	return func(c *filterConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				c.errs = append(c.errs, fmt.Errorf("path pattern %q: %w", p, err))
				continue
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// Endpoints lists the operations of doc in a stable order: paths sorted, methods in
// the fixed order get, post, put, delete, patch, head, options, trace.
func Endpoints(doc *openapi3.T, filters ...Filter) ([]Endpoint, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	cfg := &filterConfig{}
	for _, f := range filters {
		f(cfg)
	}
	if len(cfg.errs) > 0 {
		return nil, errors.Join(cfg.errs...)
	}

	pathKeys := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	var out []Endpoint
	for _, p := range pathKeys {
		item := doc.Paths[p]
		if item == nil || !cfg.allowPath(p) {
			continue
		}
		// Path-level parameters first, overridden by operation-level ones.
		base := make(map[string]*openapi3.Parameter)
		for _, pref := range item.Parameters {
			if pref != nil && pref.Value != nil {
				base[paramKey(pref.Value)] = pref.Value
			}
		}

		ops := []struct {
			m HttpMethod
			o *openapi3.Operation
		}{
			{GET, item.Get},
			{POST, item.Post},
			{PUT, item.Put},
			{DELETE, item.Delete},
			{PATCH, item.Patch},
			{HEAD, item.Head},
			{OPTIONS, item.Options},
			{TRACE, item.Trace},
		}
		for _, pair := range ops {
			if pair.o == nil || !cfg.allowMethod(pair.m) {
				continue
			}
			tags := make([]string, 0, len(pair.o.Tags))
			for _, t := range pair.o.Tags {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
			if !cfg.allowTags(tags) {
				continue
			}

			merged := make(map[string]*openapi3.Parameter, len(base))
			for k, v := range base {
				merged[k] = v
			}
			for _, pref := range pair.o.Parameters {
				if pref != nil && pref.Value != nil {
					merged[paramKey(pref.Value)] = pref.Value
				}
			}
			params := make([]*openapi3.Parameter, 0, len(merged))
			for _, v := range merged {
				params = append(params, v)
			}
			sort.Slice(params, func(i, j int) bool {
				if params[i].In == params[j].In {
					return params[i].Name < params[j].Name
				}
				return params[i].In < params[j].In
			})

			var body *openapi3.RequestBody
			if pair.o.RequestBody != nil {
				body = pair.o.RequestBody.Value
			}
			out = append(out, Endpoint{
				ID:          string(pair.m) + " " + p,
				Method:      pair.m,
				Path:        p,
				OperationID: strings.TrimSpace(pair.o.OperationID),
				Summary:     strings.TrimSpace(pair.o.Summary),
				Description: strings.TrimSpace(pair.o.Description),
				Tags:        tags,
				Parameters:  params,
				RequestBody: body,
				Responses:   pair.o.Responses,
			})
		}
	}
	return out, nil
}

// Tags returns the sorted, de-duplicated tags of endpoints.
func Tags(endpoints []Endpoint) []string {
	set := make(map[string]struct{})
	for _, ep := range endpoints {
		for _, t := range ep.Tags {
			set[t] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (c *filterConfig) allowMethod(m HttpMethod) bool {
	if len(c.methods) == 0 {
		return true
	}
	_, ok := c.methods[m]
	return ok
}

func (c *filterConfig) allowPath(p string) bool {
	if len(c.pathRes) == 0 {
		return true
	}
	for _, re := range c.pathRes {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

func (c *filterConfig) allowTags(tags []string) bool {
	if len(c.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := c.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := c.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}

func paramKey(p *openapi3.Parameter) string { return p.In + ":" + p.Name }
