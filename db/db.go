package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/GenericConfluent/finescale/catalog"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Database struct {
	Pool *pgxpool.Pool
}

func Connect(ctx context.Context, connString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Database{Pool: pool}, nil
}

func (d *Database) Close() {
	d.Pool.Close()
}

func ValueNodeId(id catalog.CourseId) string {
	const idTemplate = "%v#%v"
	return fmt.Sprintf(idTemplate, id.Subject, id.Number)
}

func ParseValueNodeId(nodeId string) (catalog.CourseId, error) {
	subject, number, found := strings.Cut(nodeId, "#")
	if !found {
		return catalog.CourseId{}, fmt.Errorf("%w: value node %q", ErrMalformedTree, nodeId)
	}
	return catalog.NewCourseId(subject, number)
}

// groupNodeId names the n-th and/or group of a course's requirement tree.
func groupNodeId(courseNodeId string, n int) string {
	return courseNodeId + "/" + strconv.Itoa(n)
}
