// Package vision recognizes receipt text with Google Cloud Vision.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"conti/internal/googleauth"
	"conti/internal/ports"

	goption "google.golang.org/api/option"
	gvision "google.golang.org/api/vision/v1"
)

// Receipts are Italian; the hint improves accented characters and amounts.
const languageHint = "it"

var ErrNoText = errors.New("no text found in image")

type Recognizer struct {
	svc *gvision.Service
}

var _ ports.TextRecognizer = (*Recognizer)(nil)

// New authenticates with the service account credentials.
func New(ctx context.Context, inlineJSON, file string) (*Recognizer, error) {
	opts, err := googleauth.ClientOptions(ctx, inlineJSON, file, gvision.CloudVisionScope)
	if err != nil {
		return nil, fmt.Errorf("vision credentials: %w", err)
	}
	return NewWithOptions(ctx, opts...)
}

func NewWithOptions(ctx context.Context, opts ...goption.ClientOption) (*Recognizer, error) {
	svc, err := gvision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}
	return &Recognizer{svc: svc}, nil
}

// Recognize runs document text detection on image.
func (r *Recognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	req := &gvision.BatchAnnotateImagesRequest{
		Requests: []*gvision.AnnotateImageRequest{{
			Image:        &gvision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features:     []*gvision.Feature{{Type: "DOCUMENT_TEXT_DETECTION"}},
			ImageContext: &gvision.ImageContext{LanguageHints: []string{languageHint}},
		}},
	}

	resp, err := r.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("annotate image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", ErrNoText
	}

	res := resp.Responses[0]
	if res.Error != nil && res.Error.Message != "" {
		return "", fmt.Errorf("annotate image: %s (code %d)", res.Error.Message, res.Error.Code)
	}

	var text string
	switch {
	case res.FullTextAnnotation != nil && res.FullTextAnnotation.Text != "":
		text = res.FullTextAnnotation.Text
	case len(res.TextAnnotations) > 0:
		text = res.TextAnnotations[0].Description
	default:
		return "", ErrNoText
	}

	slog.DebugContext(ctx, "Vision recognized text", "image_bytes", len(image), "text_length", len(text))
	return text, nil
}
