package update

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genHTMLVersion generates version strings for HTML extraction tests
func genHTMLVersion() gopter.Gen {
	return gen.RegexMatch(`^[0-9]{1,3}\.[0-9]{1,3}(\.[0-9]{1,3})?$`)
}

// genSimpleClassName generates simple CSS class names
func genSimpleClassName() gopter.Gen {
	return gen.RegexMatch(`^[a-z][a-z0-9_-]{0,10}$`)
}

// TestPropertyHTMLExtraction checks that CSS and XPath extraction recover
// the version text placed inside a document.
func TestPropertyHTMLExtraction(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("CSS class selector recovers the version", prop.ForAll(
		func(className, version string) bool {
			html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
<div class="%s">%s</div>
</body>
</html>`, className, version)

			parser := &HTMLParser{Selector: "." + className}
			result, err := parser.Parse([]byte(html))
			if err != nil {
				t.Logf("Parse failed: %v", err)
				return false
			}

			return result == version
		},
		genSimpleClassName(),
		genHTMLVersion(),
	))

	properties.Property("XPath class predicate recovers the version", prop.ForAll(
		func(className, version string) bool {
			html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
<div class="%s">%s</div>
</body>
</html>`, className, version)

			xpath := fmt.Sprintf(`//div[@class="%s"]`, className)
			parser := &HTMLParser{XPath: xpath}
			result, err := parser.Parse([]byte(html))
			if err != nil {
				t.Logf("Parse failed: %v", err)
				return false
			}

			return result == version
		},
		genSimpleClassName(),
		genHTMLVersion(),
	))

	properties.TestingRun(t)
}

func TestHTMLParserCSS(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		selector string
		expected string
	}{
		{
			name:     "class selector",
			html:     `<html><body><div class="version">1.2.3</div></body></html>`,
			selector: ".version",
			expected: "1.2.3",
		},
		{
			name:     "nested selector",
			html:     `<html><body><div class="release"><span class="version">2.0.0</span></div></body></html>`,
			selector: ".release .version",
			expected: "2.0.0",
		},
		{
			name:     "id selector",
			html:     `<html><body><span id="current-version">3.1.4</span></body></html>`,
			selector: "#current-version",
			expected: "3.1.4",
		},
		{
			name:     "whitespace trimmed",
			html:     `<html><body><div class="version">  5.0.0  </div></body></html>`,
			selector: ".version",
			expected: "5.0.0",
		},
		{
			name:     "first match wins",
			html:     `<html><body><div class="v">9.0-1</div><div class="v">8.0-1</div></body></html>`,
			selector: ".v",
			expected: "9.0-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &HTMLParser{Selector: tt.selector}
			result, err := parser.Parse([]byte(tt.html))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Parse = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestHTMLParserXPath(t *testing.T) {
	html := []byte(`<html><body><div class="release"><span class="num">2.4-1</span></div></body></html>`)
	parser := &HTMLParser{XPath: `//div[@class="release"]/span[@class="num"]`}

	result, err := parser.Parse(html)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != "2.4-1" {
		t.Errorf("Parse = %q, want 2.4-1", result)
	}
}

func TestHTMLParserRegexPostProcessing(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		regex    string
		expected string
	}{
		{
			name:     "capture group extracts version",
			html:     `<html><body><div class="version">release 4.2-1 (stable)</div></body></html>`,
			regex:    `([0-9][0-9.]*-[0-9]+)`,
			expected: "4.2-1",
		},
		{
			name:     "full match without capture group",
			html:     `<html><body><div class="version">v10.6</div></body></html>`,
			regex:    `[0-9]+\.[0-9]+`,
			expected: "10.6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &HTMLParser{Selector: ".version", Regex: tt.regex}
			result, err := parser.Parse([]byte(tt.html))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Parse = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestHTMLParserErrors(t *testing.T) {
	t.Run("no matching element", func(t *testing.T) {
		parser := &HTMLParser{Selector: ".version"}
		_, err := parser.Parse([]byte(`<html><body><div>nothing</div></body></html>`))
		if !errors.Is(err, ErrNoElementFound) {
			t.Errorf("Expected ErrNoElementFound, got: %v", err)
		}
	})

	t.Run("regex without match", func(t *testing.T) {
		parser := &HTMLParser{Selector: ".version", Regex: `[0-9]+\.[0-9]+`}
		_, err := parser.Parse([]byte(`<html><body><div class="version">no digits</div></body></html>`))
		if !errors.Is(err, ErrRegexNoMatch) {
			t.Errorf("Expected ErrRegexNoMatch, got: %v", err)
		}
	})

	t.Run("neither selector nor xpath", func(t *testing.T) {
		if _, err := NewHTMLParser("", "", ""); !errors.Is(err, ErrNoSelectorOrXPath) {
			t.Errorf("Expected ErrNoSelectorOrXPath, got: %v", err)
		}
	})

	t.Run("invalid regex rejected by constructor", func(t *testing.T) {
		if _, err := NewHTMLParser(".version", "", "("); !errors.Is(err, ErrInvalidRegexPattern) {
			t.Errorf("Expected ErrInvalidRegexPattern, got: %v", err)
		}
	})
}
