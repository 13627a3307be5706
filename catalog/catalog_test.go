package catalog

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestDataSet_UnmarshalPreservesKeyOrder(t *testing.T) {
	// Keys deliberately out of lexical order: a plain map decode would
	// lose the upstream ordering that lookup tie-breaks depend on.
	raw := `{
		"components": {
			"zebra-list": {"title": "Display/ZebraList", "storyCount": 0},
			"alpha-card": {"title": "Display/AlphaCard", "storyCount": 0},
			"mid-table": {"title": "Display/MidTable", "storyCount": 0}
		},
		"entries": {
			"zebra-list--default": {"importPath": "./src/ZebraList.stories.tsx"}
		}
	}`

	ds := &DataSet{}
	if err := json.Unmarshal([]byte(raw), ds); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	wantKeys := []string{"zebra-list", "alpha-card", "mid-table"}
	gotKeys := ds.Keys()
	if len(gotKeys) != len(wantKeys) {
		t.Fatalf("expected %d keys, got %d", len(wantKeys), len(gotKeys))
	}
	for i, want := range wantKeys {
		if gotKeys[i] != want {
			t.Errorf("key[%d]: expected %s, got %s", i, want, gotKeys[i])
		}
	}

	if len(ds.Entries) != 1 {
		t.Errorf("expected 1 raw entry, got %d", len(ds.Entries))
	}
}

func TestDataSet_UnmarshalRecordFields(t *testing.T) {
	raw := `{
		"components": {
			"forms-button": {
				"title": "Forms/Button",
				"componentPath": "src/components/Button.tsx",
				"importPath": "@uikit/button",
				"description": "A clickable button.",
				"props": {
					"variant": {
						"description": "Visual style",
						"control": "select",
						"options": ["primary", "secondary", "ghost"]
					}
				},
				"storyCount": 2,
				"stories": [
					{"id": "forms-button--primary", "name": "Primary"},
					{"id": "forms-button--ghost", "name": "Ghost"}
				],
				"storybookUrl": "https://sb.example.com/?path=/story/forms-button"
			}
		}
	}`

	ds := &DataSet{}
	if err := json.Unmarshal([]byte(raw), ds); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	rec, ok := ds.Component("forms-button")
	if !ok {
		t.Fatal("expected forms-button to be present")
	}
	if rec.Title != "Forms/Button" {
		t.Errorf("title: got %s", rec.Title)
	}
	if rec.StoryCount != len(rec.Stories) {
		t.Errorf("storyCount %d must equal len(stories) %d", rec.StoryCount, len(rec.Stories))
	}
	variant, ok := rec.Props["variant"]
	if !ok {
		t.Fatal("expected variant prop")
	}
	if variant.Control != "select" || len(variant.Options) != 3 {
		t.Errorf("unexpected variant descriptor: %+v", variant)
	}
	if rec.Stories[1].Name != "Ghost" {
		t.Errorf("stories must keep declaration order, got %+v", rec.Stories)
	}
}

func TestDataSet_UnmarshalRejectsMissingTitle(t *testing.T) {
	raw := `{"components": {"broken": {"storyCount": 0}}}`

	ds := &DataSet{}
	if err := json.Unmarshal([]byte(raw), ds); err == nil {
		t.Fatal("expected error for component without a title")
	}
}

func TestDataSet_UnmarshalEmptyComponents(t *testing.T) {
	for _, raw := range []string{`{}`, `{"components": null}`, `{"components": {}}`} {
		ds := &DataSet{}
		if err := json.Unmarshal([]byte(raw), ds); err != nil {
			t.Errorf("unmarshal %s: %v", raw, err)
		}
		if ds.Len() != 0 {
			t.Errorf("unmarshal %s: expected empty dataset, got %d keys", raw, ds.Len())
		}
	}
}

func TestComponentRecord_BaseTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Forms/Button", "Button"},
		{"Design System/Forms/Button", "Button"},
		{"Button", "Button"},
		{"Forms/", ""},
	}
	for _, tt := range tests {
		rec := ComponentRecord{Title: tt.title}
		if got := rec.BaseTitle(); got != tt.want {
			t.Errorf("BaseTitle(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestDataSet_TitlesOrder(t *testing.T) {
	raw := `{"components": {`
	for i := 9; i >= 0; i-- {
		raw += fmt.Sprintf("%q: {\"title\": %q}", fmt.Sprintf("c%d", i), fmt.Sprintf("Cat/C%d", i))
		if i > 0 {
			raw += ","
		}
	}
	raw += `}}`

	ds := &DataSet{}
	if err := json.Unmarshal([]byte(raw), ds); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	titles := ds.Titles()
	if titles[0] != "Cat/C9" || titles[9] != "Cat/C0" {
		t.Errorf("titles must follow insertion order, got %v", titles)
	}
}
