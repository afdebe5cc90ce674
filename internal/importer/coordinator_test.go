package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fredetl/internal/engine"
	"fredetl/internal/schema"
	"fredetl/internal/store"
)

const balanceSheetCSV = `资产负债表,,
编制单位：测试公司,2024年12月31日,
项目,期末余额,年初余额
货币资金,"1,500.00","1,000.00"
应收账款,"2,000.00","1,800.00"
流动资产合计,"3,500.00","2,800.00"
固定资产,"5,000.00","4,000.00"
减：累计折旧,"1,000.00",800.00
非流动资产合计,"4,000.00","3,200.00"
负债合计,"4,500.00","3,000.00"
所有者权益合计,"3,000.00","3,000.00"
`

func newCoordinator(t *testing.T) (*Coordinator, *store.Store) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "fredetl.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewCoordinator(st, schema.MustBuiltin(), engine.Options{}), st
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func collect(ch <-chan ProgressEvent) []ProgressEvent {
	var events []ProgressEvent
	for evt := range ch {
		events = append(events, evt)
	}
	return events
}

func TestImportBalanceSheet(t *testing.T) {
	t.Parallel()
	c, st := newCoordinator(t)

	events := collect(c.Import(ImportOptions{
		FilePath: writeFile(t, "upload-1.csv", balanceSheetCSV),
		Filename: "资产负债表.csv",
		Kind:     "BS",
	}))

	var types []string
	for _, evt := range events {
		types = append(types, evt.Type)
	}
	if got := strings.Join(types, ","); got != "start,loaded,extracted,done" {
		t.Fatalf("events=%s", got)
	}

	summary, ok := events[len(events)-1].Data.(*Summary)
	if !ok {
		t.Fatalf("unexpected done data: %T", events[len(events)-1].Data)
	}
	if summary.Filename != "资产负债表.csv" || summary.Result.Table.Value("资产总计", "closing") != 7500 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	run, err := st.GetRun(summary.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != store.RunCompleted || run.SchemaID != "balance-sheet" || !run.Balanced || run.ItemCount != 10 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.ReportYear != 2024 || run.ReportMonth != 12 {
		t.Fatalf("report period=%d-%d", run.ReportYear, run.ReportMonth)
	}
}

func TestImportUsesStoredDefaults(t *testing.T) {
	t.Parallel()
	c, st := newCoordinator(t)

	if s, err := c.ResolveSchema(""); err != nil || s.ID != DefaultKind {
		t.Fatalf("ResolveSchema(\"\")=%v, %v", s, err)
	}
	if err := st.SetConfig(store.ConfigDefaultKind, "PL"); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if s, err := c.ResolveSchema(""); err != nil || s.ID != "income-statement" {
		t.Fatalf("ResolveSchema with stored default=%v, %v", s, err)
	}

	if got := c.engineOptions().Tolerance; got != 0 {
		t.Fatalf("tolerance=%v, want engine default", got)
	}
	if err := st.SetConfigFloat(store.ConfigTolerance, 200); err != nil {
		t.Fatalf("SetConfigFloat: %v", err)
	}
	if got := c.engineOptions().Tolerance; got != 200 {
		t.Fatalf("tolerance=%v, want 200", got)
	}
}

func TestImportFailures(t *testing.T) {
	t.Parallel()
	c, st := newCoordinator(t)

	for _, tc := range []struct {
		name    string
		opts    ImportOptions
		stored  bool
		message string
	}{
		{name: "unknown kind", opts: ImportOptions{FilePath: "x.csv", Kind: "CF"}, message: "报表类型无效"},
		{name: "unsupported file", opts: ImportOptions{FilePath: writeFile(t, "a.docx", "x"), Kind: "BS"}, stored: true, message: "unsupported file format"},
		{name: "empty csv", opts: ImportOptions{FilePath: writeFile(t, "b.csv", ""), Kind: "BS"}, stored: true, message: "no cells found"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			events := collect(c.Import(tc.opts))
			last := events[len(events)-1]
			if last.Type != EventError || !strings.Contains(last.Message, tc.message) {
				t.Fatalf("last event=%+v", last)
			}

			runID := last.Data.(map[string]string)["run_id"]
			if !tc.stored {
				if runID != "" {
					t.Fatalf("run should not be created, got %s", runID)
				}
				return
			}
			run, err := st.GetRun(runID)
			if err != nil {
				t.Fatalf("GetRun: %v", err)
			}
			if run.Status != store.RunFailed || !strings.Contains(run.ErrorMessage, tc.message) {
				t.Fatalf("unexpected run: %+v", run)
			}
		})
	}
}

func TestImportAutoDetect(t *testing.T) {
	t.Parallel()
	c, st := newCoordinator(t)

	events := collect(c.Import(ImportOptions{
		FilePath: writeFile(t, "bs.csv", balanceSheetCSV),
		Kind:     "auto",
	}))
	last := events[len(events)-1]
	summary, ok := last.Data.(*Summary)
	if last.Type != EventDone || !ok {
		t.Fatalf("last event=%+v", last)
	}
	if summary.Result.SchemaID != "balance-sheet" {
		t.Fatalf("detected %s", summary.Result.SchemaID)
	}
	run, err := st.GetRun(summary.RunID)
	if err != nil || run.SchemaID != "balance-sheet" || run.SchemaVersion == "" {
		t.Fatalf("run=%+v, %v", run, err)
	}

	// 识别失败时记录为失败运行
	events = collect(c.Import(ImportOptions{
		FilePath: writeFile(t, "people.csv", "姓名,年龄\n张三,30\n"),
		Kind:     "AUTO",
	}))
	last = events[len(events)-1]
	if last.Type != EventError || !strings.Contains(last.Message, ErrUnrecognized.Error()) {
		t.Fatalf("last event=%+v", last)
	}
	run, err = st.GetRun(last.Data.(map[string]string)["run_id"])
	if err != nil || run.Status != store.RunFailed || run.SchemaID != KindAuto {
		t.Fatalf("run=%+v, %v", run, err)
	}
}
