package update

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
)

var (
	// ErrNoSelectorOrXPath means the extraction rules name neither a CSS
	// selector nor an XPath expression.
	ErrNoSelectorOrXPath = errors.New("either selector or xpath must be provided")
	// ErrNoElementFound means nothing on the page matched the extraction rule.
	ErrNoElementFound = errors.New("no element found matching selector")
	// ErrInvalidXPath flags a malformed XPath expression.
	ErrInvalidXPath = errors.New("invalid XPath expression")
	// ErrInvalidRegexPattern flags a pattern that does not compile.
	ErrInvalidRegexPattern = errors.New("invalid regex pattern")
	// ErrRegexNoMatch means the pattern found nothing in the element text.
	ErrRegexNoMatch = errors.New("regex pattern did not match")
)

// HTMLParser pulls a version string out of an HTML page. A CSS selector or
// an XPath expression locates the element, and an optional regular
// expression narrows its text down to the version itself.
type HTMLParser struct {
	Selector string
	XPath    string
	Regex    string

	compiled *regexp.Regexp
}

// NewHTMLParser validates the extraction rules up front. One of selector or
// xpath is required. The regex is compiled immediately so a broken pattern
// surfaces when the rules are loaded rather than mid-scan.
func NewHTMLParser(selector, xpath, regex string) (*HTMLParser, error) {
	if selector == "" && xpath == "" {
		return nil, ErrNoSelectorOrXPath
	}

	p := &HTMLParser{Selector: selector, XPath: xpath, Regex: regex}
	if regex != "" {
		var err error
		if p.compiled, err = regexp.Compile(regex); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRegexPattern, err)
		}
	}
	return p, nil
}

// Parse extracts the version from page. The CSS selector wins when both it
// and an XPath are set.
func (p *HTMLParser) Parse(page []byte) (string, error) {
	var text string
	var err error

	switch {
	case p.Selector != "":
		text, err = p.selectorText(page)
	case p.XPath != "":
		text, err = p.xpathText(page)
	default:
		return "", ErrNoSelectorOrXPath
	}
	if err != nil {
		return "", err
	}

	if p.Regex != "" {
		if text, err = p.matchVersion(text); err != nil {
			return "", err
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoVersionFound
	}
	return text, nil
}

func (p *HTMLParser) selectorText(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	sel := doc.Find(p.Selector)
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoElementFound, p.Selector)
	}
	return sel.First().Text(), nil
}

func (p *HTMLParser) xpathText(page []byte) (string, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, p.XPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidXPath, err)
	}
	if len(nodes) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoElementFound, p.XPath)
	}
	return htmlquery.InnerText(nodes[0]), nil
}

// matchVersion runs the configured pattern over the element text. The first
// capture group wins when present, otherwise the whole match is used.
// Parsers built as plain struct literals compile the pattern here on first
// use.
func (p *HTMLParser) matchVersion(text string) (string, error) {
	if p.compiled == nil {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidRegexPattern, err)
		}
		p.compiled = re
	}

	m := p.compiled.FindStringSubmatch(text)
	switch {
	case m == nil:
		return "", fmt.Errorf("%w: %q", ErrRegexNoMatch, p.Regex)
	case len(m) > 1 && m[1] != "":
		return m[1], nil
	case m[0] != "":
		return m[0], nil
	}
	return "", fmt.Errorf("%w: pattern matched empty string", ErrRegexNoMatch)
}
