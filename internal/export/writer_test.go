package export

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/xuri/excelize/v2"
)

func TestSheetWriterKeepsFirstError(t *testing.T) {
	c := qt.New(t)
	f := excelize.NewFile()
	defer f.Close()
	c.Assert(f.SetSheetName("Sheet1", sheet), qt.IsNil)

	w := &sheetWriter{f: f}
	w.set(1, 1, "ok")
	c.Assert(w.err, qt.IsNil)

	// row 0 has no cell name
	w.set(1, 0, "bad")
	c.Assert(w.err, qt.IsNotNil)
	first := w.err

	calls := 0
	w.do(func() error { calls++; return errors.New("later") })
	c.Assert(calls, qt.Equals, 0)
	c.Assert(w.err, qt.Equals, first)

	v, err := f.GetCellValue(sheet, "A1")
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, "ok")
}
