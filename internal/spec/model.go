package spec

import (
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
)

type HttpMethod string

const (
	GET     HttpMethod = "get"
	POST    HttpMethod = "post"
	PUT     HttpMethod = "put"
	DELETE  HttpMethod = "delete"
	PATCH   HttpMethod = "patch"
	HEAD    HttpMethod = "head"
	OPTIONS HttpMethod = "options"
	TRACE   HttpMethod = "trace"
)

// JSONMediaType is the media type request and response bodies are read from.
const JSONMediaType = "application/json"

// Endpoint is one (path, method) operation of the document, with its raw parser
// objects. Parameters are merged from the path item and the operation and sorted
// by location then name.
type Endpoint struct {
	ID          string // method+path
	Method      HttpMethod
	Path        string
	OperationID string
	Summary     string
	Description string
	Tags        []string
	Parameters  []*openapi3.Parameter
	RequestBody *openapi3.RequestBody
	Responses   openapi3.Responses
}

// SuccessResponse returns the 200 response, or the lowest other 2xx response when
// there is no 200. ok is false when the operation declares no success response.
func (e Endpoint) SuccessResponse() (status string, resp *openapi3.Response, ok bool) {
	if r := e.Responses["200"]; r != nil && r.Value != nil {
		return "200", r.Value, true
	}
	codes := make([]string, 0, len(e.Responses))
	for code, r := range e.Responses {
		if r == nil || r.Value == nil {
			continue
		}
		n, err := strconv.Atoi(code)
		if err != nil || n < 200 || n > 299 {
			continue
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return "", nil, false
	}
	sort.Strings(codes)
	return codes[0], e.Responses[codes[0]].Value, true
}

// RequestSchema returns the request body schema for mime, or nil.
func (e Endpoint) RequestSchema(mime string) *openapi3.SchemaRef {
	if e.RequestBody == nil {
		return nil
	}
	return mediaSchema(e.RequestBody.Content, mime)
}

// ResponseSchema returns the schema of the success response for mime, or nil.
func (e Endpoint) ResponseSchema(mime string) *openapi3.SchemaRef {
	_, resp, ok := e.SuccessResponse()
	if !ok {
		return nil
	}
	return mediaSchema(resp.Content, mime)
}

func mediaSchema(content openapi3.Content, mime string) *openapi3.SchemaRef {
	if content == nil {
		return nil
	}
	mt := content.Get(mime)
	if mt == nil {
		return nil
	}
	return mt.Schema
}
