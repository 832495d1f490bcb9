package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/GenericConfluent/finescale/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallCatalog = `{"id":{"subject_id":"CMPUT","class_id":101},"name":"Intro"}
{"id":{"subject_id":"CMPUT","class_id":102},"name":"Next","requirements":{"and":[{"prereq":{"subject_id":"CMPUT","class_id":101}},{"prereq":{"subject_id":"MATH","class_id":112}}]}}
{"id":{"subject_id":"MATH","class_id":111},"name":"Calculus I"}
{"id":{"subject_id":"MATH","class_id":112},"name":"Calculus II","requirements":{"prereq":{"subject_id":"MATH","class_id":111}}}
`

func TestParseDesired(t *testing.T) {
	ids, err := parseDesired([]string{"CMPUT", "201", "EN PH 131,MATH 125"})
	require.NoError(t, err)
	assert.Equal(t, []catalog.CourseId{
		catalog.MustParseCourseId("CMPUT 201"),
		catalog.MustParseCourseId("EN PH 131"),
		catalog.MustParseCourseId("MATH 125"),
	}, ids)

	_, err = parseDesired([]string{"CMPUT"})
	assert.ErrorIs(t, err, catalog.ErrMissingNumber)
}

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(smallCatalog), 0600))

	var out bytes.Buffer
	err := run(context.Background(), options{catalogPath: path, capacity: 4}, []string{"CMPUT 102", "MATH 112"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "1: MATH 111\n2: CMPUT 101, MATH 112\n3: CMPUT 102\n", out.String())
}

func TestRunDot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(smallCatalog), 0600))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{catalogPath: path, dot: true}, nil, &out))
	assert.Contains(t, out.String(), `1 -> 0 [ label = "Prereq" ]`)
}
