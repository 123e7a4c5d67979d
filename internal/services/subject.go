package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var ErrNoSubjectFound = errors.New("no subject could be derived from the document")

// SubjectSuggester proposes a task subject for an HTML document.
type SubjectSuggester interface {
	SuggestSubject(ctx context.Context, document string) (string, error)
}

// NewSubjectSuggester uses OpenAI when apiKey is set and the document's own
// headings otherwise.
func NewSubjectSuggester(apiKey string) SubjectSuggester {
	if apiKey == "" {
		return TitleSuggester{}
	}
	return NewAIService(apiKey)
}

// TitleSuggester takes the <title>, else the first h1-h3, else the first
// line of text.
type TitleSuggester struct{}

func (TitleSuggester) SuggestSubject(_ context.Context, document string) (string, error) {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", err
	}

	for _, want := range [][]atom.Atom{{atom.Title}, {atom.H1, atom.H2, atom.H3}} {
		if n := findFirst(root, want...); n != nil {
			if subject := ClipSubject(textContent(n)); subject != "" {
				return subject, nil
			}
		}
	}

	body := findFirst(root, atom.Body)
	if body == nil {
		body = root
	}
	for _, line := range strings.Split(textContent(body), "\n") {
		if subject := ClipSubject(line); subject != "" {
			return subject, nil
		}
	}
	return "", ErrNoSubjectFound
}

// PlainText returns the visible text of an HTML document, one block per line.
func PlainText(document string) (string, error) {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", err
	}
	return textContent(root), nil
}

// ClipSubject collapses whitespace and cuts s to the subject length limit.
func ClipSubject(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= constants.SubjectMaxLength {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:constants.SubjectMaxLength]))
}

func findFirst(n *html.Node, atoms ...atom.Atom) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range atoms {
			if n.DataAtom == a {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, atoms...); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
			if n.DataAtom == atom.Br {
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.DataAtom) {
			b.WriteByte('\n')
		}
	}
	walk(n)
	return b.String()
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Tr, atom.Title,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Table, atom.Blockquote:
		return true
	}
	return false
}
