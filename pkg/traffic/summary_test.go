package traffic

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSummary() *Summary {
	s := newSummary("run1", "127.0.0.1:8080", true, []*RouteSummary{
		{Route: "index", Path: "/"},
		{Route: "slow", Path: "/slow"},
	})
	s.record("index", 200, 2*time.Millisecond, 20, false, false)
	s.record("index", 200, 4*time.Millisecond, 20, false, false)
	s.record("slow", 200, 100*time.Millisecond, 14, false, false)
	s.record("slow", 200, 10*time.Millisecond, 14, false, true)
	s.record("slow", 0, time.Second, 0, true, false)
	s.Elapsed = 2 * time.Second
	return s
}

func TestSummary_Record(t *testing.T) {
	s := testSummary()

	index, ok := s.Route("index")
	require.True(t, ok)
	assert.Equal(t, int64(2), index.Sent)
	assert.Equal(t, int64(2), index.Matched)
	assert.Equal(t, 2*time.Millisecond, index.Min)
	assert.Equal(t, 4*time.Millisecond, index.Max)
	assert.Equal(t, 3*time.Millisecond, index.Mean())
	assert.Equal(t, "200x2", index.StatusString())

	slow, ok := s.Route("slow")
	require.True(t, ok)
	assert.Equal(t, int64(3), slow.Sent)
	assert.Equal(t, int64(1), slow.Matched)
	assert.Equal(t, int64(1), slow.Mismatched)
	assert.Equal(t, int64(1), slow.Failed)
	assert.Equal(t, 55*time.Millisecond, slow.Mean())

	totals := s.Totals()
	assert.Equal(t, int64(5), totals.Sent)
	assert.Equal(t, int64(68), totals.Bytes)
	assert.Equal(t, 2*time.Millisecond, totals.Min)
	assert.Equal(t, 100*time.Millisecond, totals.Max)
	assert.Equal(t, 2.5, s.RPS())
	assert.False(t, s.OK())
}

func TestSummary_RecordUnknownRoute(t *testing.T) {
	s := newSummary("run1", "h:1", false, nil)
	s.record("other", 404, time.Millisecond, 10, false, false)
	r, ok := s.Route("other")
	require.True(t, ok)
	assert.Equal(t, int64(1), r.Sent)
	assert.Equal(t, int64(0), r.Matched)
}

func TestSummary_RoutesAreCopies(t *testing.T) {
	s := testSummary()
	routes := s.Routes()
	routes[0].Statuses[200] = 99
	index, _ := s.Route("index")
	assert.Equal(t, int64(2), index.Statuses[200])
}

func TestSummary_WriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.Nil(t, testSummary().WriteJSON(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `{"run":"run1","host":"127.0.0.1:8080","verified":true,"cancelled":false,"elapsed_ms":2000,"rps":2.5,`), out)
	assert.Contains(t, out, `{"route":"index","path":"/","sent":2,"matched":2,"mismatched":0,"failed":0,"bytes":40,"statuses":{"200":2},"min_us":2000,"mean_us":3000,"max_us":4000}`)
	assert.Contains(t, out, `"total":{"route":"total"`)
}

func TestSummary_WriteTable(t *testing.T) {
	var buf bytes.Buffer
	testSummary().WriteTable(&buf)
	out := buf.String()
	assert.Contains(t, out, "MISMATCHED")
	assert.Contains(t, out, "200x2")
	assert.Contains(t, out, "run run1 against 127.0.0.1:8080: 5 requests in 2s (2.5 req/s)")
}

func TestSummary_JUnit(t *testing.T) {
	var buf bytes.Buffer
	require.Nil(t, testSummary().WriteJUnit(&buf))

	doc := etree.NewDocument()
	require.Nil(t, doc.ReadFromBytes(buf.Bytes()))
	suite := doc.SelectElement("testsuite")
	require.NotNil(t, suite)
	assert.Equal(t, "2", suite.SelectAttrValue("tests", ""))
	assert.Equal(t, "1", suite.SelectAttrValue("failures", ""))
	assert.Equal(t, "run1", suite.SelectAttrValue("id", ""))

	cases := suite.SelectElements("testcase")
	require.Len(t, cases, 2)
	assert.Nil(t, cases[0].SelectElement("failure"))
	failure := cases[1].SelectElement("failure")
	require.NotNil(t, failure)
	assert.Equal(t, "1 of 3 requests mismatched, 1 failed", failure.SelectAttrValue("message", ""))
}
