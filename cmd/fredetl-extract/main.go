package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"fredetl/internal/config"
	"fredetl/internal/engine"
	"fredetl/internal/exporter"
	"fredetl/internal/importer"
	"fredetl/internal/loader"
	"fredetl/internal/model"
	"fredetl/internal/schema"
	"fredetl/internal/util"
)

var (
	kind      = flag.String("kind", "bs", "报表类型: bs | pl | auto（或科目表 ID）")
	out       = flag.String("out", "", "导出文件 (.xlsx / .csv)")
	asJSON    = flag.Bool("json", false, "以 JSON 输出完整结果")
	verbose   = flag.Bool("v", false, "打印逐项匹配日志")
	schemaDir = flag.String("schemaDir", "", "额外科目表目录 (覆盖配置文件)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "用法: fredetl-extract [-kind bs|pl|auto] [-out file.xlsx|file.csv] [-json] <input>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("加载 .env 失败: %v", err)
	}

	if err := run(flag.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(input string, w io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
	}
	if *schemaDir != "" {
		cfg.Extract.SchemaDir = *schemaDir
	}

	registry, err := schema.Load(cfg.Extract.SchemaDir)
	if err != nil {
		return err
	}
	opts := engine.Options{
		HeaderRows: cfg.Extract.HeaderRows,
		Tolerance:  cfg.Extract.Tolerance,
	}
	if *verbose {
		opts.Logger = log.New(os.Stderr, "", 0)
	}

	grid, err := loader.LoadFile(input)
	if err != nil {
		return err
	}

	var s *schema.Schema
	if importer.IsAuto(*kind) {
		detected, rec, err := importer.NewCoordinator(nil, registry, opts).Detect(grid)
		if err != nil {
			return err
		}
		if *verbose {
			log.Printf("[extract] detected %s (confidence %.2f, %d items)", detected.ID, rec.Confidence, rec.Matched)
		}
		s = detected
	} else if s, err = registry.Get(*kind); err != nil {
		return err
	}

	res, err := engine.Run(grid, s, opts)
	if err != nil {
		return err
	}

	if *out != "" {
		if err := writeOut(*out, res.Table); err != nil {
			return err
		}
	}

	if *asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResult(w, s, res)
	return nil
}

func writeOut(path string, table *model.Table) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exporter.Write(f, table, format); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		if errors.Is(err, exporter.ErrUnsupportedFormat) {
			return fmt.Errorf("导出格式只支持 %s: %w", strings.Join(exporter.Formats(), "/"), err)
		}
		return err
	}
	return f.Close()
}

func printResult(w io.Writer, s *schema.Schema, res *model.Result) {
	fmt.Fprintf(w, "%s (%s v%s)", s.Name, s.ID, s.Version)
	if res.ReportYear > 0 {
		fmt.Fprintf(w, "  报告期 %d年%d月", res.ReportYear, res.ReportMonth)
	}
	fmt.Fprintln(w)

	for _, entry := range res.Ledger {
		status := "平衡"
		if !entry.Balanced {
			status = "不平"
		}
		parts := make([]string, 0, len(entry.Order))
		for _, id := range entry.Order {
			parts = append(parts, fmt.Sprintf("%s=%s", id, util.FormatAmount(entry.Operands[id])))
		}
		fmt.Fprintf(w, "  [%s] %s  差额 %s  %s\n", entry.Label, strings.Join(parts, "  "), util.FormatAmount(entry.Residual), status)
	}
	for _, f := range res.Findings {
		fmt.Fprintf(w, "  ! %s 差额 %s\n", f.Message, util.FormatAmount(f.Residual))
	}
	for _, d := range res.DrillThrough {
		fmt.Fprintf(w, "  穿透 %s/%s: 合计 %s, 明细 %s\n", d.Parent, d.PeriodID, util.FormatAmount(d.Total), util.FormatAmount(d.Children))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	head := []string{exporter.ItemHeader}
	for _, p := range res.Table.Periods {
		head = append(head, p.Label)
	}
	fmt.Fprintln(tw, strings.Join(head, "\t")+"\t")
	for _, row := range res.Table.Rows {
		line := []string{row.ItemID}
		for _, v := range row.Values {
			line = append(line, util.FormatAmount(v))
		}
		fmt.Fprintln(tw, strings.Join(line, "\t")+"\t")
	}
	_ = tw.Flush()
}
