package profile

import (
	"strings"
	"testing"
)

func TestNormalizeInput(t *testing.T) {
	tests := []struct {
		name      string
		inputType InputType
		raw       string
		want      string
		wantErr   bool
	}{
		{
			name:      "text passes through",
			inputType: InputText,
			raw:       "  budget is 50k  ",
			want:      "budget is 50k",
		},
		{
			name:      "voice transcript passes through",
			inputType: InputVoice,
			raw:       "we need this live before the board meeting",
			want:      "we need this live before the board meeting",
		},
		{
			name:      "plain file passes through",
			inputType: InputFile,
			raw:       "Meeting notes: decision by CFO",
			want:      "Meeting notes: decision by CFO",
		},
		{
			name:      "empty input",
			inputType: InputText,
			raw:       "   ",
			wantErr:   true,
		},
		{
			name:      "unknown input type",
			inputType: "telepathy",
			raw:       "x",
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeInput(tt.inputType, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeInputHTMLFile(t *testing.T) {
	raw := `<html><head><style>.x{color:red}</style></head>
<body><div><h1>Discovery call</h1><p>Budget approved at 50k.</p>
<script>alert("tracking")</script></div></body></html>`

	got, err := NormalizeInput(InputFile, raw)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "Budget approved at 50k") {
		t.Errorf("converted text missing content: %q", got)
	}
	if strings.Contains(got, "<div") || strings.Contains(got, "<p>") {
		t.Errorf("markup leaked into converted text: %q", got)
	}
	if strings.Contains(got, "alert(") || strings.Contains(got, "color:red") {
		t.Errorf("script/style content leaked: %q", got)
	}
}

func TestLooksLikeHTML(t *testing.T) {
	if looksLikeHTML("just plain prose about a <deal>") {
		t.Error("angle brackets alone should not trigger HTML handling")
	}
	if !looksLikeHTML("<!DOCTYPE html><html><body>x</body></html>") {
		t.Error("doctype document not detected")
	}
	if !looksLikeHTML(`<div class="note">x</div>`) {
		t.Error("div fragment not detected")
	}
}

func TestHTMLToTextFallback(t *testing.T) {
	got := htmlToText(`<div><p>first</p><script>skip()</script><p>second</p></div>`)
	if !strings.Contains(got, "first") || !strings.Contains(got, "second") {
		t.Errorf("missing text: %q", got)
	}
	if strings.Contains(got, "skip()") {
		t.Errorf("script content leaked: %q", got)
	}
}
