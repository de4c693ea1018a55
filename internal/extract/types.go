package extract

import "errors"

// Method identifies which strategy produced a document's stored text.
type Method string

const (
	MethodPatternTextObject    Method = "pattern_text_object"
	MethodPatternMarker        Method = "pattern_marker"
	MethodPatternStream        Method = "pattern_stream"
	MethodPatternReadableASCII Method = "pattern_readable_ascii"
	MethodVisionImage          Method = "vision_image"
	MethodVisionPDFProxy       Method = "vision_pdf_proxy"
	MethodMetadataFallback     Method = "metadata_fallback"
	MethodGenericFallback      Method = "generic_fallback"
)

// Quality is a coarse confidence label attached to an extraction result.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Kind classifies a source file for strategy selection.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
	KindOther Kind = "other"
)

// Source carries everything a strategy may need about one document.
type Source struct {
	Title    string
	FileName string
	MimeType string
	DocType  string
	Data     []byte
}

// Result is the accepted output of one strategy, tagged for chunk metadata.
type Result struct {
	Text    string
	Method  Method
	Quality Quality
}

var (
	ErrNoText      = errors.New("no usable text found")
	ErrUnavailable = errors.New("strategy unavailable")
)
