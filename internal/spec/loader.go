package spec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	openapi2 "github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path, directory or URL
	JSONPointer string // e.g. "#/paths/~1pets/get"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// SharedModelFiles are merged into a single-file document when found next to it.
var SharedModelFiles = []string{"shared_models.yml", "shared_models.yaml"}

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the first wait between retries; resty doubles it per attempt.
	BackoffBase time.Duration
	// AllowFileRefs controls whether file refs are followed for documents fetched
	// over HTTP. Local documents always allow them.
	AllowFileRefs bool
	// SkipShared disables merging of shared_models.yml next to a single file.
	SkipShared bool
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithAllowFileRefs(allow bool) Option    { return func(s *Settings) { s.AllowFileRefs = allow } }
func WithoutSharedModels() Option            { return func(s *Settings) { s.SkipShared = true } }

// Load reads, validates and returns an OpenAPI v3 document. Swagger v2.0 input is
// converted to v3 via kin-openapi openapi2conv.
//
// input may be a file, a directory (every *.yml and *.yaml beneath it is merged in
// path order) or an http/https URL. A single file is merged with a sibling
// shared_models.yml or shared_models.yaml when present.
func Load(ctx context.Context, input string, opts ...Option) (*openapi3.T, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	log := zerolog.Ctx(ctx)

	u, uerr := url.Parse(input)
	if uerr == nil && u.Scheme != "" && u.Host != "" {
		scheme := strings.ToLower(u.Scheme)
		if scheme == "file" {
			return nil, &SpecError{Code: InputError, Message: "spec: file:// URLs are blocked by default", Location: input}
		}
		if scheme != "http" && scheme != "https" {
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		log.Debug().Str("url", input).Msg("fetching document")
		raw, err := fetch(ctx, newHTTPClient(settings), input)
		if err != nil {
			return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		return parse(ctx, raw, u, settings, false)
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("OpenAPI file(s) not found: %s", abs), Location: abs, Cause: err}
	}

	var raw []byte
	location := abs
	if info.IsDir() {
		files, err := documentFiles(abs)
		if err != nil {
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("walk %s: %v", abs, err), Location: abs, Cause: err}
		}
		if len(files) == 0 {
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("no *.yml or *.yaml files in %s", abs), Location: abs}
		}
		log.Info().Int("files", len(files)).Str("dir", abs).Msg("Merging OpenAPI documents")
		raw, err = mergeFiles(files)
		if err != nil {
			return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("merge %s: %v", abs, err), Location: abs, Cause: err}
		}
		location = files[0]
	} else {
		raw, err = os.ReadFile(abs)
		if err != nil {
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
		}
		if shared := sharedModels(abs, settings); shared != "" {
			log.Info().Str("file", filepath.Base(shared)).Msg("Merging with shared models document")
			raw, err = mergeFiles([]string{abs, shared})
			if err != nil {
				return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("merge %s: %v", shared, err), Location: abs, Cause: err}
			}
		}
	}
	return parse(ctx, raw, &url.URL{Path: filepath.ToSlash(location)}, settings, true)
}

func parse(ctx context.Context, raw []byte, location *url.URL, settings Settings, rootIsFile bool) (*openapi3.T, error) {
	loc := location.String()
	version, err := detectSpecVersion(raw)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: loc, Cause: err}
	}

	var doc *openapi3.T
	switch version {
	case 3:
		loader := newLoader(settings, rootIsFile)
		doc, err = loader.LoadFromDataWithPath(raw, location)
		if err != nil {
			return nil, mapValidateOrParseErr(err, loc)
		}
	case 2:
		doc, err = convertV2ToV3(raw)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: loc, Cause: err}
		}
		loader := newLoader(settings, rootIsFile)
		if err := loader.ResolveRefsIn(doc, nil); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to resolve refs after conversion")
		}
	default:
		return nil, &SpecError{Code: ParseError, Message: "spec: unknown or unsupported OpenAPI/Swagger version", Location: loc}
	}

	if err := doc.Validate(ctx); err != nil {
		if !canProceedDespiteValidation(err) {
			return nil, mapValidateOrParseErr(err, loc)
		}
		zerolog.Ctx(ctx).Warn().Err(err).Msg("proceeding despite validation error")
	}
	return doc, nil
}

// documentFiles lists every *.yml and *.yaml file beneath dir, sorted.
func documentFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yml", ".yaml":
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func sharedModels(file string, settings Settings) string {
	if settings.SkipShared {
		return ""
	}
	dir := filepath.Dir(file)
	for _, name := range SharedModelFiles {
		p := filepath.Join(dir, name)
		if p == file {
			continue
		}
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

func mergeFiles(files []string) ([]byte, error) {
	docs := make([][]byte, 0, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, b)
	}
	return MergeDocuments(docs...)
}

func newHTTPClient(settings Settings) *resty.Client {
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	retries := settings.MaxRetries - 1
	if retries < 0 {
		retries = 0
	}
	return resty.New().
		SetTimeout(settings.HTTPTimeout).
		SetRetryCount(retries).
		SetRetryWaitTime(backoff).
		SetRetryMaxWaitTime(backoff * 8).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= http.StatusInternalServerError || r.StatusCode() == http.StatusTooManyRequests
		})
}

func fetch(ctx context.Context, client *resty.Client, rawURL string) ([]byte, error) {
	resp, err := client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 300 {
		body := resp.Body()
		if len(body) > 1024 {
			body = body[:1024]
		}
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode(), strings.TrimSpace(string(body)))
	}
	return resp.Body(), nil
}

func newLoader(settings Settings, rootIsFile bool) *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	client := newHTTPClient(settings)
	allowFile := settings.AllowFileRefs || rootIsFile
	loader.ReadFromURIFunc = func(l *openapi3.Loader, uri *url.URL) ([]byte, error) {
		switch strings.ToLower(uri.Scheme) {
		case "", "file":
			if !allowFile {
				return nil, fmt.Errorf("blocked file ref: %s", uri.String())
			}
			path := uri.Path
			if path == "" {
				path = uri.Opaque
			}
			return os.ReadFile(filepath.FromSlash(path))
		case "http", "https":
			ctx := l.Context
			if ctx == nil {
				ctx = context.Background()
			}
			return fetch(ctx, client, uri.String())
		default:
			return nil, fmt.Errorf("unsupported ref scheme: %s", uri.Scheme)
		}
	}
	return loader
}

// detectSpecVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else error.
func detectSpecVersion(data []byte) (int, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return 0, fmt.Errorf("parse spec: %w", err)
	}
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3, nil
		}
	}
	if v, ok := root["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return 2, nil
		}
	}
	return 0, fmt.Errorf("spec: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

// convertV2ToV3 goes through JSON because openapi2.T only carries json tags.
func convertV2ToV3(data []byte) (*openapi3.T, error) {
	plain, err := plainValue(data)
	if err != nil {
		return nil, err
	}
	if m, ok := plain.(map[string]any); ok {
		fixV2Operations(m)
	}
	buf, err := json.Marshal(plain)
	if err != nil {
		return nil, err
	}
	var v2 openapi2.T
	if err := json.Unmarshal(buf, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

func mapValidateOrParseErr(err error, location string) error {
	pointer := extractJSONPointer(err)
	code := ValidationError
	if strings.Contains(strings.ToLower(err.Error()), "parse") || strings.Contains(strings.ToLower(err.Error()), "invalid character") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	if me, ok := err.(openapi3.MultiError); ok {
		if len(me) > 0 {
			return extractJSONPointer(me[0])
		}
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}

// canProceedDespiteValidation returns true for validation errors where a
// best-effort build can still proceed (e.g., unresolved $ref entries).
func canProceedDespiteValidation(err error) bool {
	if err == nil {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unresolved ref") || strings.Contains(s, "found unresolved ref")
}
