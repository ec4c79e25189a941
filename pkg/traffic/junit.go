package traffic

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
)

// JUnit renders the summary as a JUnit XML document with one test case per route.
// A route fails when any of its requests failed or, when verifying, mismatched.
func (s *Summary) JUnit() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	routes := s.Routes()
	failures := 0
	for _, r := range routes {
		if r.Failed > 0 || r.Mismatched > 0 {
			failures++
		}
	}

	suite := doc.CreateElement("testsuite")
	suite.CreateAttr("name", "traffic "+s.Host)
	suite.CreateAttr("id", s.RunID)
	suite.CreateAttr("tests", strconv.Itoa(len(routes)))
	suite.CreateAttr("failures", strconv.Itoa(failures))
	suite.CreateAttr("time", fmt.Sprintf("%.3f", s.Elapsed.Seconds()))
	suite.CreateAttr("timestamp", s.Started.UTC().Format("2006-01-02T15:04:05"))

	for _, r := range routes {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("classname", "testapp.route")
		tc.CreateAttr("name", r.Route+" "+r.Path)
		tc.CreateAttr("time", fmt.Sprintf("%.3f", r.Total.Seconds()))

		props := tc.CreateElement("properties")
		for _, kv := range [][2]string{
			{"sent", strconv.FormatInt(r.Sent, 10)},
			{"statuses", r.StatusString()},
			{"mean", r.Mean().String()},
		} {
			p := props.CreateElement("property")
			p.CreateAttr("name", kv[0])
			p.CreateAttr("value", kv[1])
		}

		if r.Failed > 0 || r.Mismatched > 0 {
			f := tc.CreateElement("failure")
			f.CreateAttr("type", "mismatch")
			f.CreateAttr("message", fmt.Sprintf("%d of %d requests mismatched, %d failed", r.Mismatched, r.Sent, r.Failed))
			f.SetText(fmt.Sprintf("statuses: %s", r.StatusString()))
		}
	}
	if s.Cancelled {
		suite.CreateElement("system-out").SetText("run cancelled before completion")
	}

	doc.Indent(2)
	return doc
}

func (s *Summary) WriteJUnit(w io.Writer) error {
	if _, err := s.JUnit().WriteTo(w); err != nil {
		return errors.Wrap(err, "writing junit report")
	}
	return nil
}

func (s *Summary) WriteJUnitFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating junit report %s", path)
	}
	defer f.Close()
	return s.WriteJUnit(f)
}
