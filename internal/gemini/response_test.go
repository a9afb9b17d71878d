package gemini

import (
	"errors"
	"strings"
	"testing"
)

func TestParseResponseFirstImage(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantMime string
		wantData string
		wantErr  error
	}{
		{
			name:     "snake case",
			body:     `{"candidates":[{"content":{"parts":[{"inline_data":{"mime_type":"image/png","data":"AAAA"}}]}}]}`,
			wantMime: "image/png",
			wantData: "AAAA",
		},
		{
			name:     "camel case",
			body:     `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"AAAA"}}]}}]}`,
			wantMime: "image/png",
			wantData: "AAAA",
		},
		{
			name:     "mixed casing inside one blob",
			body:     `{"candidates":[{"content":{"parts":[{"inline_data":{"mimeType":"image/webp","data":"BBBB"}}]}}]}`,
			wantMime: "image/webp",
			wantData: "BBBB",
		},
		{
			name:     "text part before image",
			body:     `{"candidates":[{"content":{"parts":[{"text":"Here you go"},{"inlineData":{"mimeType":"image/jpeg","data":"CCCC"}}]}}]}`,
			wantMime: "image/jpeg",
			wantData: "CCCC",
		},
		{
			name:     "incomplete part skipped",
			body:     `{"candidates":[{"content":{"parts":[{"inlineData":{"data":"NOMIME"}},{"inline_data":{"mime_type":"image/png","data":"DDDD"}}]}}]}`,
			wantMime: "image/png",
			wantData: "DDDD",
		},
		{
			name:     "first candidate wins",
			body:     `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"FIRST"}}]}},{"content":{"parts":[{"inline_data":{"mime_type":"image/png","data":"SECOND"}}]}}]}`,
			wantMime: "image/png",
			wantData: "FIRST",
		},
		{
			name:     "later candidate used when first has no image",
			body:     `{"candidates":[{"content":{"parts":[{"text":"no"}]}},{"content":{"parts":[{"inline_data":{"mime_type":"image/png","data":"SECOND"}}]}}]}`,
			wantMime: "image/png",
			wantData: "SECOND",
		},
		{
			name:    "no candidates",
			body:    `{"candidates":[]}`,
			wantErr: ErrNoImage,
		},
		{
			name:    "candidate without content",
			body:    `{"candidates":[{"finishReason":"SAFETY"}]}`,
			wantErr: ErrNoImage,
		},
		{
			name:    "text only",
			body:    `{"candidates":[{"content":{"parts":[{"text":"I cannot do that"}]}}]}`,
			wantErr: ErrNoImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseResponse([]byte(tt.body))
			if err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}
			img, err := resp.FirstImage()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if img.MimeType != tt.wantMime || img.Data != tt.wantData {
				t.Errorf("expected %s/%s, got %s/%s", tt.wantMime, tt.wantData, img.MimeType, img.Data)
			}
		})
	}
}

func TestCasingVariantsNormalizeIdentically(t *testing.T) {
	snake, err := ParseResponse([]byte(`{"candidates":[{"content":{"parts":[{"inline_data":{"mime_type":"image/png","data":"QUJD"}}]}}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	camel, err := ParseResponse([]byte(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"QUJD"}}]}}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := snake.FirstImage()
	b, _ := camel.FirstImage()
	if *a != *b {
		t.Errorf("expected identical images, got %+v and %+v", a, b)
	}
}

func TestBlockReasonInError(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = resp.FirstImage()
	if err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Errorf("expected block reason in error, got %v", err)
	}
}

func TestParseResponseInvalidJSON(t *testing.T) {
	if _, err := ParseResponse([]byte(`{"candidates":`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestResponseText(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"candidates":[{"content":{"parts":[{"text":"one"},{"text":"two"}]}}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.Text(); got != "one two" {
		t.Errorf("expected %q, got %q", "one two", got)
	}
}
