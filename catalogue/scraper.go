package catalogue

import (
	"context"
	"fmt"

	"github.com/GenericConfluent/finescale/catalog"
	"github.com/GenericConfluent/finescale/requisites"
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	IndexPath        = "/catalogue/course"
	departmentPrefix = IndexPath + "/"
)

// Record is everything scraped from one course page.
type Record struct {
	Meta    Meta            `json:"meta"`
	Desc    *string         `json:"desc"`
	Prereqs requisites.Expr `json:"prereqs"`
	Coreqs  requisites.Expr `json:"coreqs"`
}

// Course converts the record into a catalog entry. Requirement references
// that are not catalog courses are left out of the entry and reported
// through dropped; err is set only when the record has no valid course id.
func (r Record) Course() (course catalog.Course, dropped error, err error) {
	id, err := catalog.NewCourseId(r.Meta.Subject, r.Meta.Catalog)
	if err != nil {
		return catalog.Course{}, nil, fmt.Errorf("course %v %v: %w", r.Meta.Subject, r.Meta.Catalog, err)
	}

	course = catalog.Course{ID: id, Name: r.Meta.CourseTitle}
	if r.Desc != nil {
		course.Description = *r.Desc
	}
	course.Requirements, dropped = requisites.ToRequirement(r.Prereqs, r.Coreqs)
	return course, dropped, nil
}

// Scraper walks the catalogue: the index lists departments and each
// department page lists its courses.
type Scraper struct {
	fetcher     Fetcher
	reader      *requisites.Reader
	logger      *zap.Logger
	concurrency int
}

func NewScraper(fetcher Fetcher, reader *requisites.Reader, logger *zap.Logger, concurrency int) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reader == nil {
		reader = requisites.NewReader(logger)
	}
	return &Scraper{
		fetcher:     fetcher,
		reader:      reader,
		logger:      logger,
		concurrency: max(concurrency, 1),
	}
}

// Run scrapes every course and hands the records to emit, department by
// department in link order. Departments are fetched concurrently. A course
// page that cannot be read is logged and skipped; failing to fetch a page
// or an error from emit stops the run.
func (s *Scraper) Run(ctx context.Context, emit func(Record) error) error {
	index, err := s.page(ctx, IndexPath)
	if err != nil {
		return err
	}
	departments := Links(index, departmentPrefix)
	s.logger.Info("found departments", zap.Int("count", len(departments)))

	results := make([][]Record, len(departments))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i, department := range departments {
		i, department := i, department
		group.Go(func() error {
			records, err := s.department(groupCtx, department)
			if err != nil {
				return fmt.Errorf("department %v: %w", department, err)
			}
			results[i] = records
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for _, records := range results {
		for _, record := range records {
			if err := emit(record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scraper) department(ctx context.Context, path string) ([]Record, error) {
	doc, err := s.page(ctx, path)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, link := range Links(doc, path+"/") {
		doc, err := s.page(ctx, link)
		if err != nil {
			return nil, err
		}

		record, err := s.course(doc)
		if err != nil {
			s.logger.Warn("skipping course page", zap.String("path", link), zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Scraper) course(doc *goquery.Document) (Record, error) {
	meta, err := ParseMeta(doc)
	if err != nil {
		return Record{}, err
	}
	desc, err := ParseDescription(doc)
	if err != nil {
		return Record{}, err
	}

	record := Record{Meta: meta, Desc: desc}
	if desc != nil {
		record.Prereqs, record.Coreqs = s.reader.Read(*desc)
	}
	return record, nil
}

func (s *Scraper) page(ctx context.Context, path string) (*goquery.Document, error) {
	content, err := s.fetcher.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	doc, err := ParsePage(content)
	if err != nil {
		return nil, fmt.Errorf("parse %v: %w", path, err)
	}
	return doc, nil
}
