package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoImage is returned when a well-formed response carries no usable image part.
var ErrNoImage = errors.New("no image generated")

// Response is the canonical view of a generateContent response. Both the snake_case and the
// camelCase wire shapes normalise into it.
type Response struct {
	Candidates  []Candidate
	BlockReason string
}

// Candidate holds the parts of one generated candidate.
type Candidate struct {
	FinishReason string
	Parts        []Part
}

// Part is either text, an inline image, or both empty.
type Part struct {
	Text  string
	Image *InlineImage
}

// InlineImage is a base64 image returned inline by the model.
type InlineImage struct {
	MimeType string
	Data     string
}

// Complete reports whether both the payload and its MIME type are present.
func (i *InlineImage) Complete() bool {
	return i != nil && i.Data != "" && i.MimeType != ""
}

// The upstream has been observed emitting either casing for the same fields, so the raw
// types accept both and normalize picks whichever is populated.
type rawResponse struct {
	Candidates []struct {
		FinishReason string `json:"finishReason"`
		Content      *struct {
			Parts []rawPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type rawPart struct {
	Text            string   `json:"text"`
	InlineDataSnake *rawBlob `json:"inline_data"`
	InlineDataCamel *rawBlob `json:"inlineData"`
}

type rawBlob struct {
	MimeTypeSnake string `json:"mime_type"`
	MimeTypeCamel string `json:"mimeType"`
	Data          string `json:"data"`
}

func (b *rawBlob) normalize() *InlineImage {
	if b == nil {
		return nil
	}
	mimeType := b.MimeTypeSnake
	if mimeType == "" {
		mimeType = b.MimeTypeCamel
	}
	return &InlineImage{MimeType: mimeType, Data: b.Data}
}

func (p rawPart) normalize() Part {
	part := Part{Text: p.Text}
	snake := p.InlineDataSnake.normalize()
	camel := p.InlineDataCamel.normalize()
	switch {
	case snake.Complete():
		part.Image = snake
	case camel.Complete():
		part.Image = camel
	case snake != nil:
		part.Image = snake
	default:
		part.Image = camel
	}
	return part
}

// ParseResponse decodes a generateContent body into the canonical Response.
func ParseResponse(body []byte) (*Response, error) {
	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode gemini response: %w", err)
	}
	return raw.normalize(), nil
}

func (r rawResponse) normalize() *Response {
	resp := &Response{Candidates: make([]Candidate, 0, len(r.Candidates))}
	if r.PromptFeedback != nil {
		resp.BlockReason = r.PromptFeedback.BlockReason
	}
	for _, c := range r.Candidates {
		candidate := Candidate{FinishReason: c.FinishReason}
		if c.Content != nil {
			candidate.Parts = make([]Part, 0, len(c.Content.Parts))
			for _, p := range c.Content.Parts {
				candidate.Parts = append(candidate.Parts, p.normalize())
			}
		}
		resp.Candidates = append(resp.Candidates, candidate)
	}
	return resp
}

// FirstImage returns the first complete inline image, scanning candidates then parts in order.
func (r *Response) FirstImage() (*InlineImage, error) {
	for _, c := range r.Candidates {
		for _, p := range c.Parts {
			if p.Image.Complete() {
				return p.Image, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoImage, r.describe())
}

// Text joins any text parts; models often explain a refusal there.
func (r *Response) Text() string {
	var text string
	for _, c := range r.Candidates {
		for _, p := range c.Parts {
			if p.Text == "" {
				continue
			}
			if text != "" {
				text += " "
			}
			text += p.Text
		}
	}
	return text
}

func (r *Response) describe() string {
	if r.BlockReason != "" {
		return "prompt blocked: " + r.BlockReason
	}
	if len(r.Candidates) == 0 {
		return "response had no candidates"
	}
	desc := fmt.Sprintf("%d candidate(s) without inline image data", len(r.Candidates))
	if reason := r.Candidates[0].FinishReason; reason != "" {
		desc += ", finish reason " + reason
	}
	return desc
}
