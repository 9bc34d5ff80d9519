package spec

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestMergeDocuments_DeepMerge(t *testing.T) {
	t.Parallel()
	a := []byte(`openapi: 3.0.0
info:
  title: A
  version: "1"
components:
  schemas:
    Pet:
      type: object
tags: [one]
`)
	b := []byte(`info:
  title: B
components:
  schemas:
    Owner:
      type: object
tags: [two]
`)
	out, err := MergeDocuments(a, b)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	var got struct {
		OpenAPI string `yaml:"openapi"`
		Info    struct {
			Title   string `yaml:"title"`
			Version string `yaml:"version"`
		} `yaml:"info"`
		Components struct {
			Schemas map[string]any `yaml:"schemas"`
		} `yaml:"components"`
		Tags []string `yaml:"tags"`
	}
	if err := yaml.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.OpenAPI != "3.0.0" || got.Info.Version != "1" {
		t.Fatalf("lost keys from first document: %+v", got)
	}
	if got.Info.Title != "B" {
		t.Fatalf("later scalar should win, got %q", got.Info.Title)
	}
	if len(got.Components.Schemas) != 2 {
		t.Fatalf("expected both schemas, got %v", got.Components.Schemas)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "two" {
		t.Fatalf("later sequence should win, got %v", got.Tags)
	}
}

func TestMergeDocuments_Errors(t *testing.T) {
	t.Parallel()
	if _, err := MergeDocuments(); err == nil {
		t.Fatalf("expected error for no documents")
	}
	if _, err := MergeDocuments([]byte("- a\n- b\n")); err == nil {
		t.Fatalf("expected error for a sequence document")
	}
	if _, err := MergeDocuments([]byte("a: [\n")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestPlainValue_StringKeys(t *testing.T) {
	t.Parallel()
	v, err := plainValue([]byte("responses:\n  200:\n    ok: true\n    n: 3\n"))
	if err != nil {
		t.Fatalf("plain: %v", err)
	}
	resp := v.(map[string]any)["responses"].(map[string]any)
	inner, ok := resp["200"].(map[string]any)
	if !ok {
		t.Fatalf("expected string key 200, got %#v", resp)
	}
	if inner["ok"] != true || inner["n"] != int64(3) {
		t.Fatalf("unexpected scalars %#v", inner)
	}
}
