package ai

import (
	"testing"
)

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	type step struct {
		Type  string `json:"type"`
		Label string `json:"label"`
	}

	tests := []struct {
		name  string
		input string
		want  step
	}{
		{
			name:  "valid json object",
			input: `{"type":"teaching","label":"opening mishnah"}`,
			want:  step{Type: "teaching", Label: "opening mishnah"},
		},
		{
			name:  "unquoted key and single quotes",
			input: `{type: 'teaching', label: 'opening mishnah'}`,
			want:  step{Type: "teaching", Label: "opening mishnah"},
		},
		{
			name:  "trailing comma",
			input: `{"type":"teaching","label":"opening mishnah",}`,
			want:  step{Type: "teaching", Label: "opening mishnah"},
		},
		{
			name:  "missing endbracket",
			input: `{"type":"teaching","label":"opening mishnah"`,
			want:  step{Type: "teaching", Label: "opening mishnah"},
		},
		{
			name:  "stringified invalid json object",
			input: `"{type: 'teaching', label: 'opening mishnah'}"`,
			want:  step{Type: "teaching", Label: "opening mishnah"},
		},
		{
			name:  "prose around the document",
			input: "Here is the structure you asked for:\n{\"type\":\"teaching\",\"label\":\"opening mishnah\"}\nLet me know if you need anything else.",
			want:  step{Type: "teaching", Label: "opening mishnah"},
		},
		{
			name:  "markdown fence",
			input: "```json\n{\"type\":\"teaching\",\"label\":\"opening mishnah\"}\n```",
			want:  step{Type: "teaching", Label: "opening mishnah"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got step
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_NestedSteps(t *testing.T) {
	type response struct {
		Title string `json:"title"`
		Steps []struct {
			Type           string `json:"type"`
			ParentSequence int    `json:"parent_sequence"`
		} `json:"steps"`
	}

	input := `"{ \"title\": \"Evening Shema\", \"steps\": [ {\"type\": \"teaching\"}, {\"type\": \"challenge\", \"parent_sequence\": 1} ] }"`
	var got response
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if got.Title != "Evening Shema" {
		t.Errorf("UnmarshalFlexible() title = %q, want %q", got.Title, "Evening Shema")
	}
	if len(got.Steps) != 2 || got.Steps[1].ParentSequence != 1 {
		t.Fatalf("UnmarshalFlexible() steps = %+v, want two steps with second parent 1", got.Steps)
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	type step struct {
		Type string `json:"type"`
	}

	var got step
	if err := UnmarshalFlexible("hello", &got); err == nil {
		t.Fatalf("UnmarshalFlexible() expected error for unrecoverable input")
	}
}
