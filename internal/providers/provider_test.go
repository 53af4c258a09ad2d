package providers

import (
	"encoding/json"
	"testing"
)

func TestResultMarshalShapes(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{
			name:   "unavailable",
			result: Unavailable(),
			want:   `{"unavailable":true}`,
		},
		{
			name:   "pending",
			result: Pending(),
			want:   `{"pending":true}`,
		},
		{
			name:   "failed",
			result: Failed("timeout"),
			want:   `{"error":"timeout"}`,
		},
		{
			name:   "ok with raw passthrough",
			result: OK(ThreatMatches{Matches: 1, Raw: json.RawMessage(`{"matches":[{"threatType":"MALWARE"}]}`)}),
			want:   `{"matches":[{"threatType":"MALWARE"}]}`,
		},
		{
			name:   "ok without raw",
			result: OK(ThreatMatches{Matches: 2}),
			want:   `{"matches":2}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.result)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tc.want {
				t.Errorf("got %s, want %s", data, tc.want)
			}
		})
	}
}

func TestScreenshotMarshalShape(t *testing.T) {
	shot := Screenshot{Image: []byte("png-bytes"), SourceURL: "https://urlscan.io/screenshots/x.png"}

	data, err := json.Marshal(OK(shot))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Base64 []byte `json:"base64"`
		Meta   struct {
			Source string `json:"source"`
			URL    string `json:"url"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if string(decoded.Base64) != "png-bytes" {
		t.Errorf("unexpected image bytes %q", decoded.Base64)
	}
	if decoded.Meta.Source != "urlscan" {
		t.Errorf("expected source urlscan, got %s", decoded.Meta.Source)
	}
	if decoded.Meta.URL != shot.SourceURL {
		t.Errorf("unexpected meta url %s", decoded.Meta.URL)
	}
}
