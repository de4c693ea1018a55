package extract

import (
	"context"
	"fmt"
	"strings"
)

// Generator produces free text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VisionProvider transcribes an inline image through a multimodal model.
type VisionProvider interface {
	Describe(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// minVisionLen is the acceptance threshold for model transcriptions; shorter
// responses are refusals or boilerplate, not document content.
const minVisionLen = 50

// VisionExtractor delegates extraction to a multimodal model: full image
// transcription for image files, and a text-only proxy prompt for PDFs whose
// bytes yielded nothing syntactically.
type VisionExtractor struct {
	vision VisionProvider
	gen    Generator
}

func NewVisionExtractor(vision VisionProvider, gen Generator) *VisionExtractor {
	return &VisionExtractor{vision: vision, gen: gen}
}

func (e *VisionExtractor) ExtractImage(ctx context.Context, src *Source) (string, error) {
	if e == nil || e.vision == nil {
		return "", ErrUnavailable
	}
	prompt := fmt.Sprintf(`You are analyzing a medical document. Extract all the text content from this image with high accuracy.

Document title: %s

Focus on:
1. All visible text, numbers, and values
2. Medical terminology and lab results
3. Patient information and test results
4. Dates and reference ranges
5. Any tables or structured data

Provide a comprehensive text extraction that captures all the information visible in the document. Be precise and include all numeric values, units, and medical terms exactly as they appear.`, src.Title)

	text, err := e.vision.Describe(ctx, prompt, src.Data, src.MimeType)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if len(text) <= minVisionLen {
		return "", ErrNoText
	}
	return text, nil
}

func (e *VisionExtractor) ExtractPDFProxy(ctx context.Context, src *Source) (string, error) {
	if e == nil || e.gen == nil {
		return "", ErrUnavailable
	}
	prompt := fmt.Sprintf(`You are a medical document text extractor. A PDF medical document titled "%s" needs text extraction.

The document may contain lab test results, patient information, medical measurements and values, reference ranges, dates and timestamps.

Extract any readable text content from this document. Focus on meaningful medical information, test results and values. Return the extracted text in a clean, readable format.`, src.Title)

	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if len(text) <= minVisionLen {
		return "", ErrNoText
	}
	return text, nil
}
