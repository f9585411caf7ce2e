package engine

import "testing"

func TestExtractJSONField(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
		want  string
	}{
		{
			name: "valid json",
			raw:  `{"full_context": "hello world"}`, field: "full_context",
			want: "hello world",
		},
		{
			name: "escaped quotes",
			raw:  `{"full_context": "client said \"budget is tight\""}`, field: "full_context",
			want: `client said "budget is tight"`,
		},
		{
			name: "escaped newlines",
			raw:  `{"summary": "line1\nline2"}`, field: "summary",
			want: "line1\nline2",
		},
		{
			name: "missing field",
			raw:  `{"result": "something"}`, field: "full_context",
			want: "",
		},
		{
			name: "empty input",
			raw:  "", field: "full_context",
			want: "",
		},
		{
			name: "malformed - no closing quote",
			raw:  `{"summary": "unclosed`, field: "summary",
			want: "unclosed",
		},
		{
			name: "extra whitespace",
			raw:  `{  "summary" :  "spaced out"  }`, field: "summary",
			want: "spaced out",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSONField(tt.raw, tt.field)
			if got != tt.want {
				t.Errorf("ExtractJSONField() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"no fences", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading whitespace", "  ```json\n{}\n```  ", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.raw); got != tt.want {
				t.Errorf("stripFences() = %q, want %q", got, tt.want)
			}
		})
	}
}
