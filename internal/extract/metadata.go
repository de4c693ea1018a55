package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// CategoryTemplate describes what a recognized document category typically
// contains. The tables below are lookup data rather than logic so deployments
// can extend the vocabulary without touching the synthesizer.
type CategoryTemplate struct {
	Triggers []string
	Intro    string
	Items    []string
}

// subjectKeywords is the vocabulary scanned against title+filename to detect
// a probable document subject. Spanish terms reflect the source data the
// heuristics were tuned on.
var subjectKeywords = []string{
	"hemograma", "blood", "test", "results", "lab", "laboratory", "analisis",
	"inmunoglobulina", "glucose", "cholesterol", "protein", "urine", "orina",
	"biopsy", "radiography", "mri", "scan", "ultrasound", "cardiogram",
	"pathology", "histology", "cytology", "microbiology",
}

var categoryTemplates = []CategoryTemplate{
	{
		Triggers: []string{"hemograma", "blood"},
		Intro:    "This appears to be a blood test (hemograma) document. Typically contains:",
		Items: []string{
			"Complete Blood Count (CBC) results",
			"White blood cell count and types",
			"Red blood cell parameters",
			"Platelet count",
			"Hemoglobin and hematocrit levels",
		},
	},
	{
		Triggers: []string{"inmunoglobulina"},
		Intro:    "This appears to be an immunoglobulin test document. Typically contains:",
		Items: []string{
			"IgA, IgG, IgM levels",
			"Total immunoglobulin E (IgE)",
			"Specific allergen testing results",
			"Reference ranges and interpretations",
		},
	},
}

// docTypeNotes augments the synthetic body for declared document types.
var docTypeNotes = map[string]string{
	"diagnosis report":  "This diagnostic report contains important medical information about the patient's condition, symptoms, and professional medical assessment.",
	"treatment plan":    "This treatment plan outlines the recommended therapeutic interventions, medications, and care strategies for the patient.",
	"therapy notes":     "These therapy notes document treatment sessions, progress observations, and therapeutic recommendations.",
	"assessment report": "This assessment report provides detailed evaluation of the patient's condition, abilities, and needs.",
	"iep/504 plan":      "This educational plan outlines special education services, accommodations, and support strategies for the student.",
}

var (
	reDateShape = regexp.MustCompile(`(?i)(\d{1,2}[\s\-/]\d{1,2}[\s\-/]\d{2,4})|(\d{4}[\s\-/]\d{1,2}[\s\-/]\d{1,2})|([a-z]+\s+\d{1,2}\s+\d{4})`)
	reLongDigit = regexp.MustCompile(`\b\d{8,}\b`)
)

// Synthesize builds a topic-relevant surrogate body from document metadata
// alone. It is pure string formatting over already-available fields and is
// one of the two producers in the chain that cannot fail.
func Synthesize(src *Source) string {
	title := src.Title
	if title == "" {
		title = "Medical Document"
	}
	combined := strings.ToLower(title + " " + src.FileName)

	var detected []string
	for _, kw := range subjectKeywords {
		if strings.Contains(combined, kw) {
			detected = append(detected, kw)
		}
	}
	dates := firstN(reDateShape.FindAllString(combined, -1), 2)
	ids := firstN(reLongDigit.FindAllString(combined, -1), 2)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Medical Document: %s\n\n", title)
	if len(detected) > 0 {
		fmt.Fprintf(&sb, "Document Type: Medical test/analysis (detected: %s)\n", strings.Join(detected, ", "))
	}
	if len(dates) > 0 {
		fmt.Fprintf(&sb, "Test Dates: %s\n", strings.Join(dates, ", "))
	}
	if len(ids) > 0 {
		fmt.Fprintf(&sb, "Patient/Test IDs: %s\n", strings.Join(ids, ", "))
	}
	sb.WriteString("File Information:\n")
	fmt.Fprintf(&sb, "- Original filename: %s\n", src.FileName)
	fmt.Fprintf(&sb, "- File size: %.1f KB\n", float64(len(src.Data))/1024)
	sb.WriteString("- Document type: PDF medical document\n\n")

	for _, tpl := range categoryTemplates {
		if !containsAny(combined, tpl.Triggers) {
			continue
		}
		sb.WriteString(tpl.Intro + "\n")
		for _, item := range tpl.Items {
			fmt.Fprintf(&sb, "- %s\n", item)
		}
		sb.WriteString("\n")
	}
	if note, ok := docTypeNotes[strings.ToLower(src.DocType)]; ok {
		sb.WriteString(note + "\n\n")
	}

	sb.WriteString("Note: This document content was reconstructed from metadata as the text extraction encountered technical difficulties. For complete accuracy, manual review of the original document is recommended.")
	return sb.String()
}

// GenericFallback is the terminal producer: a minimal templated line naming
// the document and its type. It requires no I/O and never fails.
func GenericFallback(src *Source) string {
	title := src.Title
	if title == "" {
		title = src.FileName
	}
	fileType := src.MimeType
	if fileType == "" {
		fileType = "Unknown"
	}
	return fmt.Sprintf("Document: %s. File type: %s. This document could not be processed with content extraction and requires manual review.", title, fileType)
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
