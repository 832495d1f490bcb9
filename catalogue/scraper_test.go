package catalogue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/GenericConfluent/finescale/catalog"
	"github.com/GenericConfluent/finescale/requisites"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageMap struct {
	mu      sync.Mutex
	pages   map[string]string
	fetched []string
}

func (p *pageMap) Get(_ context.Context, path string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetched = append(p.fetched, path)
	content, ok := p.pages[path]
	if !ok {
		return "", fmt.Errorf("get %v: %w", path, ErrUnexpectedStatus)
	}
	return content, nil
}

func testCatalogue() *pageMap {
	return &pageMap{pages: map[string]string{
		"/catalogue/course": `<html><body>
<a href="/catalogue/course/math">MATH</a>
<a href="/catalogue/course/cmput">CMPUT</a>
</body></html>`,
		"/catalogue/course/cmput": `<html><body>
<a href="/catalogue/course/cmput/201">CMPUT 201</a>
<a href="/catalogue/course/cmput/174">CMPUT 174</a>
<a href="/catalogue/course/cmput/broken">Broken</a>
</body></html>`,
		"/catalogue/course/math": `<html><body>
<a href="/catalogue/course/math/100">MATH 100</a>
</body></html>`,
		"/catalogue/course/cmput/174": coursePage("CMPUT", "174", "Foundations of Computation I",
			`<p>An introduction to computing. No prerequisites.</p>`),
		"/catalogue/course/cmput/201": coursePage("CMPUT", "201", "Practical Programming Methodology",
			`<p>Prerequisite: CMPUT 174 or 274; one of MATH 100, 114, 117, 134, 144, or 154. Corequisite: Mathematics 31.</p>`),
		"/catalogue/course/cmput/broken": `<html><body>nothing here</body></html>`,
		"/catalogue/course/math/100": coursePage("MATH", "100", "Calculus I",
			`<p>Prerequisite: Mathematics 30-1 and Mathematics 31.</p>`),
	}}
}

func TestScraperRun(t *testing.T) {
	fetcher := testCatalogue()
	scraper := NewScraper(fetcher, nil, nil, 2)

	var records []Record
	err := scraper.Run(context.Background(), func(r Record) error {
		records = append(records, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "174", records[0].Meta.Catalog)
	assert.True(t, records[0].Prereqs.IsEmpty())
	assert.Equal(t, "201", records[1].Meta.Catalog)
	assert.Equal(t,
		"(all (any (CMPUT 174) (CMPUT 274)) (any (MATH 100) (MATH 114) (MATH 117) (MATH 134) (MATH 144) (MATH 154)))",
		records[1].Prereqs.String())
	assert.True(t, records[1].Coreqs.IsEmpty())
	assert.Equal(t, "MATH", records[2].Meta.Subject)
	assert.True(t, records[2].Prereqs.IsEmpty())
}

func TestScraperRunStopsOnFetchError(t *testing.T) {
	fetcher := testCatalogue()
	delete(fetcher.pages, "/catalogue/course/math/100")

	err := NewScraper(fetcher, requisites.NewReader(nil), nil, 1).Run(context.Background(), func(Record) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestScraperRunStopsOnEmitError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := NewScraper(testCatalogue(), nil, nil, 4).Run(context.Background(), func(Record) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestRecordCourse(t *testing.T) {
	desc := "Prerequisite: CMPUT 174 or 274."
	record := Record{
		Meta:    Meta{Subject: "CMPUT", Catalog: "201", CourseTitle: "Practical Programming Methodology"},
		Desc:    &desc,
		Prereqs: requisites.Any(requisites.Course("CMPUT", "174"), requisites.Course("CMPUT", "274")),
		Coreqs:  requisites.Course("MATH", "31"),
	}

	course, dropped, err := record.Course()
	require.NoError(t, err)
	assert.ErrorIs(t, dropped, catalog.ErrNumberRange)
	assert.Equal(t, catalog.MustParseCourseId("CMPUT 201"), course.ID)
	assert.Equal(t, "Practical Programming Methodology", course.Name)
	assert.Equal(t, desc, course.Description)

	want := catalog.NewOr(
		catalog.NewPrereq(catalog.MustParseCourseId("CMPUT 174")),
		catalog.NewPrereq(catalog.MustParseCourseId("CMPUT 274")),
	)
	require.NotNil(t, course.Requirements)
	assert.Equal(t, want, *course.Requirements)
}

func TestRecordCourseInvalidId(t *testing.T) {
	_, _, err := Record{Meta: Meta{Subject: "CMPUT", Catalog: "17"}}.Course()
	assert.ErrorIs(t, err, catalog.ErrNumberRange)
}
