package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/GenericConfluent/finescale/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const createSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS courses (
	subject_id TEXT NOT NULL,
	class_id INTEGER NOT NULL,
	node_id TEXT NOT NULL REFERENCES nodes (id),
	name TEXT NOT NULL,
	description TEXT,
	PRIMARY KEY (subject_id, class_id)
);
CREATE TABLE IF NOT EXISTS relations (
	source_id TEXT NOT NULL REFERENCES nodes (id),
	target_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	prereq BOOLEAN,
	coreq BOOLEAN,
	PRIMARY KEY (source_id, position)
)`

const insertNode = `INSERT INTO nodes (id, type) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET type=EXCLUDED.type`
const insertCourse = `INSERT INTO courses (subject_id, class_id, node_id, name, description) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (subject_id, class_id) DO UPDATE SET node_id=EXCLUDED.node_id, name=EXCLUDED.name, description=EXCLUDED.description`
const deleteRelations = `DELETE FROM relations WHERE source_id = $1 OR source_id LIKE $1 || '/%'`
const insertRelation = `INSERT INTO relations (source_id, target_id, position, prereq, coreq) VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`

const listCourses = `SELECT subject_id, class_id, node_id, name, description FROM courses ORDER BY subject_id, class_id`
const listGroupNodes = `SELECT id, type FROM nodes WHERE type <> 'value'`
const listRelations = `SELECT source_id, target_id, position, prereq, coreq FROM relations`

func insertCallback(ct pgconn.CommandTag) error {
	return nil
}

func (d *Database) Migrate(ctx context.Context) error {
	_, err := d.Pool.Exec(ctx, createSchema)
	return err
}

func (d *Database) InsertNodes(ctx context.Context, nodes []Node) error {
	if len(nodes) == 0 {
		return nil
	}

	batch := pgx.Batch{}
	var queuedQueries []*pgx.QueuedQuery

	for _, node := range nodes {
		queuedQueries = append(queuedQueries, batch.Queue(insertNode, node.Id, node.Type))
	}

	for _, queuedQuery := range queuedQueries {
		queuedQuery.Exec(insertCallback)
	}

	return d.Pool.SendBatch(ctx, &batch).Close()
}

func (d *Database) InsertCourses(ctx context.Context, courses []Course) error {
	if len(courses) == 0 {
		return nil
	}

	batch := pgx.Batch{}
	var queuedQueries []*pgx.QueuedQuery

	for _, course := range courses {
		var description *string
		if course.Description != nil {
			cleaned := strings.ReplaceAll(*course.Description, "\x00", "")
			description = &cleaned
		}
		queuedQueries = append(queuedQueries, batch.Queue(insertCourse, course.SubjectId, course.ClassId, course.NodeId, course.Name, description))
	}

	for _, queuedQuery := range queuedQueries {
		queuedQuery.Exec(insertCallback)
	}

	return d.Pool.SendBatch(ctx, &batch).Close()
}

// ReplaceRelations drops the stored requirement trees of the given course
// nodes and inserts relations in their place.
func (d *Database) ReplaceRelations(ctx context.Context, courseNodeIds []string, relations []Relation) error {
	if len(courseNodeIds) == 0 && len(relations) == 0 {
		return nil
	}

	batch := pgx.Batch{}
	var queuedQueries []*pgx.QueuedQuery

	for _, nodeId := range courseNodeIds {
		queuedQueries = append(queuedQueries, batch.Queue(deleteRelations, nodeId))
	}
	for _, relation := range relations {
		queuedQueries = append(queuedQueries, batch.Queue(insertRelation, relation.SourceId, relation.TargetId, relation.Position, relation.Prereq, relation.Coreq))
	}

	for _, queuedQuery := range queuedQueries {
		queuedQuery.Exec(insertCallback)
	}

	return d.Pool.SendBatch(ctx, &batch).Close()
}

// SaveCatalog stores courses along with their requirement trees, replacing
// what was stored for them before.
func (d *Database) SaveCatalog(ctx context.Context, courses []catalog.Course) error {
	var nodes []Node
	var rows []Course
	var relations []Relation
	var courseNodeIds []string

	for _, course := range courses {
		row, courseNodes, courseRelations := FlattenRequirements(course)
		rows = append(rows, row)
		nodes = append(nodes, courseNodes...)
		relations = append(relations, courseRelations...)
		courseNodeIds = append(courseNodeIds, row.NodeId)
	}

	if err := d.InsertNodes(ctx, nodes); err != nil {
		return fmt.Errorf("insert nodes: %w", err)
	}
	if err := d.InsertCourses(ctx, rows); err != nil {
		return fmt.Errorf("insert courses: %w", err)
	}
	if err := d.ReplaceRelations(ctx, courseNodeIds, relations); err != nil {
		return fmt.Errorf("insert relations: %w", err)
	}
	return nil
}

// ListCourses loads the stored catalog in course id order.
func (d *Database) ListCourses(ctx context.Context) ([]catalog.Course, error) {
	types, err := d.listGroupNodes(ctx)
	if err != nil {
		return nil, err
	}
	relations, err := d.listRelations(ctx)
	if err != nil {
		return nil, err
	}

	byCourse := make(map[string][]Relation)
	for _, relation := range relations {
		courseNodeId, _, _ := strings.Cut(relation.SourceId, "/")
		byCourse[courseNodeId] = append(byCourse[courseNodeId], relation)
	}

	rows, err := d.Pool.Query(ctx, listCourses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []catalog.Course
	for rows.Next() {
		var row Course
		if err := rows.Scan(&row.SubjectId, &row.ClassId, &row.NodeId, &row.Name, &row.Description); err != nil {
			return nil, err
		}

		id, err := catalog.NewCourseId(row.SubjectId, fmt.Sprint(row.ClassId))
		if err != nil {
			return nil, err
		}
		course := catalog.Course{ID: id, Name: row.Name}
		if row.Description != nil {
			course.Description = *row.Description
		}
		course.Requirements, err = AssembleRequirements(row.NodeId, types, byCourse[row.NodeId])
		if err != nil {
			return nil, fmt.Errorf("course %v: %w", id, err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return courses, nil
}

func (d *Database) listGroupNodes(ctx context.Context) (map[string]NodeType, error) {
	rows, err := d.Pool.Query(ctx, listGroupNodes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make(map[string]NodeType)
	for rows.Next() {
		var node Node
		if err := rows.Scan(&node.Id, &node.Type); err != nil {
			return nil, err
		}
		types[node.Id] = node.Type
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return types, nil
}

func (d *Database) listRelations(ctx context.Context) ([]Relation, error) {
	rows, err := d.Pool.Query(ctx, listRelations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []Relation
	for rows.Next() {
		var relation Relation
		if err := rows.Scan(&relation.SourceId, &relation.TargetId, &relation.Position, &relation.Prereq, &relation.Coreq); err != nil {
			return nil, err
		}
		relations = append(relations, relation)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return relations, nil
}
