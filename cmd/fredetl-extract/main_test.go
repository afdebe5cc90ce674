package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fredetl/internal/model"
)

const incomeStatementCSV = `利润表,,
项目,本期金额,本年累计金额
一、营业收入,"10,000.00","50,000.00"
减：营业成本,"6,000.00","30,000.00"
三、利润总额,"2,000.00","10,000.00"
减：所得税费用,500.00,"2,500.00"
四、净利润,"1,500.00","7,500.00"
`

func TestRunPrintsLedgerAndExports(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pl.csv")
	if err := os.WriteFile(input, []byte(incomeStatementCSV), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	*kind = "pl"
	*out = filepath.Join(dir, "Standard_PL_Report.xlsx")
	*asJSON = false
	t.Cleanup(func() { *kind, *out = "bs", "" })

	var buf bytes.Buffer
	if err := run(input, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := buf.String()
	for _, want := range []string{"利润表", "净利润", "10,000.00", "平衡"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if st, err := os.Stat(*out); err != nil || st.Size() == 0 {
		t.Fatalf("export not written: %v", err)
	}
}

func TestRunJSON(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pl.csv")
	if err := os.WriteFile(input, []byte(incomeStatementCSV), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	*kind = "auto"
	*asJSON = true
	t.Cleanup(func() { *kind, *asJSON = "bs", false })

	var buf bytes.Buffer
	if err := run(input, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	var res model.Result
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.SchemaID != "income-statement" || res.Table.Value("净利润", "cumulative-period") != 7500 {
		t.Fatalf("unexpected result: %+v", res.Table)
	}
}

func TestRunRejectsUnknownExport(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pl.csv")
	if err := os.WriteFile(input, []byte(incomeStatementCSV), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	*kind = "pl"
	*out = filepath.Join(dir, "report.pdf")
	t.Cleanup(func() { *kind, *out = "bs", "" })

	if err := run(input, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected export format error")
	}
	if _, err := os.Stat(*out); !os.IsNotExist(err) {
		t.Fatalf("partial export left behind: %v", err)
	}
}
