package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	titleMinLen   = 20
	titleMaxLen   = 120
	excerptMinLen = 50
	excerptMaxLen = 300
	minHeadings   = 3
	minParagraphs = 8
	minWords      = 500
	minTextChars  = 2000
)

// foreignTokens is a fixed block-list of non-target-language markers.
// Matching any of them in the title or the body sample fails the language check.
var foreignTokens = []string{
	"der", "das", "und", "nicht", "für",
	"avec", "pour", "être", "très",
	"esto", "para", "también",
	"является", "статья", "который",
}

var (
	foreignExpr   = buildForeignExpr()
	clickbaitExpr = []*regexp.Regexp{
		regexp.MustCompile(`(?i)you won'?t believe`),
		regexp.MustCompile(`(?i)\bshocking\b`),
		regexp.MustCompile(`(?i)this one (weird )?(trick|secret)`),
		regexp.MustCompile(`(?i)\bdoctors hate\b`),
		regexp.MustCompile(`(?i)number \d+ will`),
	}
	titlePunctExpr = regexp.MustCompile(`(!{1,}|\?{2,}|\.{3,})`)
	nestedExpr     = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<p>\s*<p[>\s]`),
		regexp.MustCompile(`(?i)<p>\s*<h[1-6][>\s]`),
		regexp.MustCompile(`(?i)<h[1-6]>\s*<p[>\s]`),
	}
	headingOpenExpr  = regexp.MustCompile(`(?i)<h[1-6][^>]*>`)
	headingCloseExpr = regexp.MustCompile(`(?i)</h[1-6]>`)
	paraOpenExpr     = regexp.MustCompile(`(?i)<p[^>]*>`)
	paraCloseExpr    = regexp.MustCompile(`(?i)</p>`)
)

// serializationArtifacts are fragments of machine output that must never
// reach a reader: stringified maps, escape sequences, JSON debris.
var serializationArtifacts = []string{
	"{'", "'}", "[{", "}]", "\\n", "\\u", "=>", "[object Object]",
}

var placeholderMarkers = []string{
	"[PLACEHOLDER]", "[INSERT", "TODO:", "lorem ipsum", "XXX",
}

func buildForeignExpr() *regexp.Regexp {
	escaped := make([]string, len(foreignTokens))
	for i, tok := range foreignTokens {
		escaped[i] = regexp.QuoteMeta(tok)
	}
	return regexp.MustCompile(`(?i)(^|[\s.,;:!?])(` + strings.Join(escaped, "|") + `)([\s.,;:!?]|$)`)
}

// Result aggregates the outcome of one validation pass.
type Result struct {
	Valid  bool
	Errors []string
}

// Validator is a stateless, side-effect-free content quality gate. It only
// reports problems; tolerance thresholds belong to the caller.
type Validator struct{}

// New returns a ready validator.
func New() *Validator {
	return &Validator{}
}

// Validate runs every rule over the generated content and collects error
// strings. The content is valid iff no rule reported anything.
func (v *Validator) Validate(title, excerpt, body, category string) Result {
	var errs []string

	errs = append(errs, checkLanguage(title, body)...)
	errs = append(errs, checkTitle(title)...)
	errs = append(errs, checkExcerpt(excerpt, body)...)
	errs = append(errs, checkBody(body)...)
	errs = append(errs, checkStructure(body)...)
	errs = append(errs, checkLength(body)...)
	errs = append(errs, checkMarkup(body)...)

	return Result{Valid: len(errs) == 0, Errors: errs}
}

func checkLanguage(title, body string) []string {
	sample := title + " " + bodySample(body, 600)
	if foreignExpr.MatchString(sample) {
		return []string{"language: content contains disallowed foreign-language tokens"}
	}
	return nil
}

func checkTitle(title string) []string {
	var errs []string

	if err := validation.Validate(title,
		validation.Required.Error("title is empty"),
		validation.Length(titleMinLen, titleMaxLen).Error(
			fmt.Sprintf("title length must be between %d and %d characters", titleMinLen, titleMaxLen)),
	); err != nil {
		errs = append(errs, "title: "+err.Error())
	}

	if titlePunctExpr.MatchString(title) {
		errs = append(errs, "title: forbidden punctuation (exclamations, stacked question marks or ellipses)")
	}

	for _, expr := range clickbaitExpr {
		if expr.MatchString(title) {
			errs = append(errs, "title: clickbait pattern "+expr.String())
		}
	}

	return errs
}

func checkExcerpt(excerpt, body string) []string {
	var errs []string

	if err := validation.Validate(excerpt,
		validation.Required.Error("excerpt is empty"),
		validation.Length(excerptMinLen, excerptMaxLen).Error(
			fmt.Sprintf("excerpt length must be between %d and %d characters", excerptMinLen, excerptMaxLen)),
	); err != nil {
		errs = append(errs, "excerpt: "+err.Error())
	}

	for _, artifact := range serializationArtifacts {
		if strings.Contains(excerpt, artifact) {
			errs = append(errs, "excerpt: serialization artifact "+artifact)
		}
	}

	if first := firstParagraphText(body); first != "" {
		if strings.TrimSpace(excerpt) == first {
			errs = append(errs, "excerpt: verbatim copy of the body's first paragraph")
		}
	}

	return errs
}

func checkBody(body string) []string {
	var errs []string

	for _, artifact := range serializationArtifacts {
		if strings.Contains(body, artifact) {
			errs = append(errs, "body: serialization artifact "+artifact)
		}
	}

	lower := strings.ToLower(body)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			errs = append(errs, "body: placeholder marker "+marker)
		}
	}

	return errs
}

func checkStructure(body string) []string {
	var errs []string

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return []string{"structure: body is not parseable markup"}
	}

	if n := doc.Find("h1,h2,h3,h4,h5,h6").Length(); n < minHeadings {
		errs = append(errs, fmt.Sprintf("structure: %d headings, need at least %d", n, minHeadings))
	}
	if n := doc.Find("p").Length(); n < minParagraphs {
		errs = append(errs, fmt.Sprintf("structure: %d paragraphs, need at least %d", n, minParagraphs))
	}

	if len(paraOpenExpr.FindAllString(body, -1)) != len(paraCloseExpr.FindAllString(body, -1)) {
		errs = append(errs, "structure: unbalanced paragraph tags")
	}
	if len(headingOpenExpr.FindAllString(body, -1)) != len(headingCloseExpr.FindAllString(body, -1)) {
		errs = append(errs, "structure: unbalanced heading tags")
	}

	return errs
}

func checkLength(body string) []string {
	var errs []string

	text := StripMarkup(body)
	if words := len(strings.Fields(text)); words < minWords {
		errs = append(errs, fmt.Sprintf("length: %d words, need at least %d", words, minWords))
	}
	if chars := len(text); chars < minTextChars {
		errs = append(errs, fmt.Sprintf("length: %d characters after markup strip, need at least %d", chars, minTextChars))
	}

	return errs
}

func checkMarkup(body string) []string {
	var errs []string

	trimmed := strings.TrimSpace(body)
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "<p") {
		errs = append(errs, "markup: body must start with a paragraph tag")
	}
	if !strings.HasSuffix(lower, "</p>") {
		errs = append(errs, "markup: body must end with a closing paragraph tag")
	}

	for _, expr := range nestedExpr {
		if expr.MatchString(trimmed) {
			errs = append(errs, "markup: invalid tag nesting "+expr.String())
		}
	}

	return errs
}

// StripMarkup returns the plain text of an HTML fragment. Falls back to the
// raw input when the fragment cannot be parsed.
func StripMarkup(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body
	}
	return strings.TrimSpace(doc.Text())
}

func firstParagraphText(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("p").First().Text())
}

func bodySample(body string, n int) string {
	text := StripMarkup(body)
	if len(text) > n {
		return text[:n]
	}
	return text
}
