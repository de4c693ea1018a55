package extract

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// minAcceptLen guards pattern results: anything at or below this is noise
// left over from PDF structure, not document text.
const minAcceptLen = 50

// Strategy is one attempt at turning a source into text. A strategy returns
// ErrNoText or ErrUnavailable to pass control to the next one in the chain;
// any other error is also non-fatal to the chain but is logged as a failure.
type Strategy interface {
	Name() Method
	Attempt(ctx context.Context, src *Source) (*Result, error)
}

// Classify maps a source's MIME type (with a filename fallback) to the
// strategy chain it should run.
func Classify(src *Source) Kind {
	mime := strings.ToLower(src.MimeType)
	name := strings.ToLower(src.FileName)
	switch {
	case strings.Contains(mime, "pdf") || strings.HasSuffix(name, ".pdf"):
		return KindPDF
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	default:
		return KindOther
	}
}

// Orchestrator runs strategy chains per source kind. Chains are ordered by
// quality; the first accepted result wins. The final strategy of every chain
// cannot fail, so Extract never returns an error for a well-formed source.
type Orchestrator struct {
	pdf   []Strategy
	image []Strategy
	other []Strategy
}

// NewOrchestrator wires the default chains. vis may be nil when no vision
// capable provider is configured; those strategies then report unavailable
// and the metadata fallback takes over.
func NewOrchestrator(vis *VisionExtractor) *Orchestrator {
	pattern := &patternStrategy{ex: NewPatternExtractor()}
	return &Orchestrator{
		pdf: []Strategy{
			pattern,
			&pdfProxyStrategy{ex: vis},
			&metadataStrategy{quality: QualityMedium},
			&genericStrategy{},
		},
		image: []Strategy{
			&imageStrategy{ex: vis},
			&genericStrategy{},
		},
		other: []Strategy{
			&metadataStrategy{quality: QualityLow},
		},
	}
}

func (o *Orchestrator) Extract(ctx context.Context, src *Source) (*Result, error) {
	var chain []Strategy
	switch Classify(src) {
	case KindPDF:
		chain = o.pdf
	case KindImage:
		chain = o.image
	default:
		chain = o.other
	}
	logger := logutil.GetLogger(ctx).With(zap.String("file", src.FileName))
	var lastErr error
	for _, st := range chain {
		res, err := st.Attempt(ctx, src)
		if err == nil {
			logger.Info("extraction succeeded",
				zap.String("method", string(res.Method)),
				zap.String("quality", string(res.Quality)),
				zap.Int("length", len(res.Text)))
			return res, nil
		}
		lastErr = err
		logger.Info("extraction strategy failed, trying next",
			zap.String("method", string(st.Name())), zap.Error(err))
	}
	return nil, lastErr
}

type patternStrategy struct {
	ex *PatternExtractor
}

func (s *patternStrategy) Name() Method { return MethodPatternTextObject }

func (s *patternStrategy) Attempt(ctx context.Context, src *Source) (*Result, error) {
	text, method, err := s.ex.Extract(ctx, src.Data)
	if err != nil {
		return nil, err
	}
	if len(text) <= minAcceptLen || !IsReadableText(text) {
		return nil, ErrNoText
	}
	return &Result{Text: text, Method: method, Quality: QualityHigh}, nil
}

type pdfProxyStrategy struct {
	ex *VisionExtractor
}

func (s *pdfProxyStrategy) Name() Method { return MethodVisionPDFProxy }

func (s *pdfProxyStrategy) Attempt(ctx context.Context, src *Source) (*Result, error) {
	text, err := s.ex.ExtractPDFProxy(ctx, src)
	if err != nil {
		return nil, err
	}
	return &Result{Text: text, Method: MethodVisionPDFProxy, Quality: QualityHigh}, nil
}

type imageStrategy struct {
	ex *VisionExtractor
}

func (s *imageStrategy) Name() Method { return MethodVisionImage }

func (s *imageStrategy) Attempt(ctx context.Context, src *Source) (*Result, error) {
	text, err := s.ex.ExtractImage(ctx, src)
	if err != nil {
		return nil, err
	}
	return &Result{Text: text, Method: MethodVisionImage, Quality: QualityHigh}, nil
}

type metadataStrategy struct {
	quality Quality
}

func (s *metadataStrategy) Name() Method { return MethodMetadataFallback }

func (s *metadataStrategy) Attempt(ctx context.Context, src *Source) (*Result, error) {
	return &Result{Text: Synthesize(src), Method: MethodMetadataFallback, Quality: s.quality}, nil
}

type genericStrategy struct{}

func (s *genericStrategy) Name() Method { return MethodGenericFallback }

func (s *genericStrategy) Attempt(ctx context.Context, src *Source) (*Result, error) {
	return &Result{Text: GenericFallback(src), Method: MethodGenericFallback, Quality: QualityLow}, nil
}
