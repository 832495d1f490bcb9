package catalogue

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	ErrMissingMeta   = errors.New("course page is missing a catalogue meta tag")
	ErrNoDescription = errors.New("course page has no description container")
)

const noOfferings = "There are currently no scheduled offerings of this course."

// Meta is the set of ua__cat_* meta tags on a course page.
type Meta struct {
	Faculty        string `json:"faculty"`
	Subject        string `json:"subject"`
	Catalog        string `json:"catalog"`
	Course         string `json:"course"`
	CourseTitle    string `json:"coursetitle"`
	Credits        string `json:"credits"`
	Career         string `json:"career"`
	Term           string `json:"term"`
	Sections       string `json:"sections"`
	SectionsOnline string `json:"sections_online"`
}

func ParsePage(content string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Links returns the sorted, distinct hrefs that start with prefix.
func Links(doc *goquery.Document, prefix string) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.HasPrefix(href, prefix) {
			links = append(links, href)
		}
	})
	slices.Sort(links)
	return slices.Compact(links)
}

func ParseMeta(doc *goquery.Document) (Meta, error) {
	tags := make(map[string]string)
	doc.Find("meta[name][content]").Each(func(_ int, m *goquery.Selection) {
		name, _ := m.Attr("name")
		content, _ := m.Attr("content")
		tags[name] = html.UnescapeString(strings.TrimSpace(content))
	})

	var meta Meta
	var missing []string
	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"ua__cat_faculty", &meta.Faculty},
		{"ua__cat_subject", &meta.Subject},
		{"ua__cat_catalog", &meta.Catalog},
		{"ua__cat_course", &meta.Course},
		{"ua__cat_coursetitle", &meta.CourseTitle},
		{"ua__cat_credits", &meta.Credits},
		{"ua__cat_career", &meta.Career},
		{"ua__cat_term", &meta.Term},
		{"ua__cat_sections", &meta.Sections},
		{"ua__cat_sections_online", &meta.SectionsOnline},
	} {
		value, ok := tags[field.name]
		if !ok {
			missing = append(missing, field.name)
			continue
		}
		*field.dst = value
	}

	if len(missing) > 0 {
		return Meta{}, fmt.Errorf("%w: %v", ErrMissingMeta, strings.Join(missing, ", "))
	}
	return meta, nil
}

// ParseDescription finds the description of a course page: the second
// paragraph of the content container, which is the one holding the page
// nav. Alerts other than the "no scheduled offerings" notice take a
// paragraph's place; when one lands second the course has no description
// and nil is returned.
func ParseDescription(doc *goquery.Document) (*string, error) {
	for _, root := range doc.Find(".container").Nodes {
		container := goquery.NewDocumentFromNode(root)
		if container.Find("nav").Length() == 0 {
			continue
		}

		var blocks []*goquery.Selection
		container.Find("p, div.alert").Each(func(_ int, block *goquery.Selection) {
			if block.Is("div") && strings.Contains(block.Text(), noOfferings) {
				return
			}
			blocks = append(blocks, block)
		})
		if len(blocks) < 2 {
			continue
		}

		if !blocks[1].Is("p") {
			return nil, nil
		}
		desc := strings.TrimSpace(blocks[1].Text())
		return &desc, nil
	}
	return nil, ErrNoDescription
}
