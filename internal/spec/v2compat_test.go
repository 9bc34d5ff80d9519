package spec

import (
	"testing"
)

func v2Op(t *testing.T, src string) map[string]any {
	t.Helper()
	v, err := plainValue([]byte(src))
	if err != nil {
		t.Fatalf("plain: %v", err)
	}
	return v.(map[string]any)
}

func TestV2Compat_MultipleBodyMerged(t *testing.T) {
	t.Parallel()
	doc := v2Op(t, `swagger: "2.0"
info: { title: t, version: "1.0.0" }
paths:
  /x:
    post:
      parameters:
      - in: body
        name: a
        required: true
        schema: { type: string }
      - in: body
        name: b
        schema: { type: integer }
      - in: query
        name: q
        type: string
      responses: { '200': { description: ok } }
`)
	if !fixV2Operations(doc) {
		t.Fatalf("expected changes")
	}
	op := doc["paths"].(map[string]any)["/x"].(map[string]any)["post"].(map[string]any)
	params := op["parameters"].([]any)
	if len(params) != 2 {
		t.Fatalf("expected merged body plus query, got %d params", len(params))
	}
	body := params[0].(map[string]any)
	if body["in"] != "body" || body["name"] != "body" {
		t.Fatalf("expected merged single body parameter, got %v", body)
	}
	props := body["schema"].(map[string]any)["properties"].(map[string]any)
	if props["a"] == nil || props["b"] == nil {
		t.Fatalf("expected a and b properties, got %v", props)
	}
}

func TestV2Compat_BodyAndFormData_ToFormData(t *testing.T) {
	t.Parallel()
	doc := v2Op(t, `swagger: "2.0"
info: { title: t, version: "1.0.0" }
paths:
  /upload:
    post:
      parameters:
      - in: body
        name: desc
        schema: { type: string }
      - in: formData
        name: file
        type: file
        required: true
      responses: { '200': { description: ok } }
`)
	if !fixV2Operations(doc) {
		t.Fatalf("expected changes")
	}
	op := doc["paths"].(map[string]any)["/upload"].(map[string]any)["post"].(map[string]any)
	for _, p := range op["parameters"].([]any) {
		if paramIn(p) == "body" {
			t.Fatalf("expected no body params after conversion to formData")
		}
	}
	if !containsString(op["consumes"].([]any), "multipart/form-data") {
		t.Fatalf("expected consumes multipart/form-data, got %v", op["consumes"])
	}
}

func TestV2Compat_NoChange(t *testing.T) {
	t.Parallel()
	doc := v2Op(t, `swagger: "2.0"
paths:
  /x:
    get:
      parameters:
      - in: query
        name: q
        type: string
`)
	if fixV2Operations(doc) {
		t.Fatalf("expected no changes")
	}
}
