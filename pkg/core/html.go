package core

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLParser turns markup into a queryable document
type HTMLParser interface {
	Parse(html string) (*goquery.Document, error)
}

// GoqueryParser is the default HTMLParser
type GoqueryParser struct{}

func (GoqueryParser) Parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
