// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/daviszhen/compaction/pkg/column"
	"github.com/daviszhen/compaction/pkg/common"
	"github.com/daviszhen/compaction/pkg/compact"
	"github.com/daviszhen/compaction/pkg/loader"
	"github.com/daviszhen/compaction/pkg/util"
)

var runCfg = &util.Config{}

var defCfgFilePaths = []string{".", "etc"}
var cfgFileName = "compactor.toml"

func init() {
	cobra.OnInitialize(loadConfig)
	initFilterCmd()
}

func loadConfig() {
	for _, dirPath := range defCfgFilePaths {
		fpath := filepath.Join(dirPath, cfgFileName)
		if !util.FileIsValid(fpath) {
			continue
		}
		if _, err := toml.DecodeFile(fpath, runCfg); err != nil {
			util.Error("load config file failed",
				zap.String("fpath", fpath),
				zap.Error(err))
			continue
		}
		return
	}
}

var info = "compactor"
var RootCmd = &cobra.Command{
	Use:          "compactor",
	Short:        info,
	Long:         info,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("use compactor --help or -h")
	},
}

var filterInfo = "filter rows of a parquet file"
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: filterInfo,
	Long:  filterInfo,
	RunE: func(cmd *cobra.Command, args []string) error {
		initFilterCfg()
		return runFilter(runCfg)
	},
}

func initFilterCfg() {
	if v := viper.GetString("data.path"); v != "" {
		runCfg.Data.Path = v
	}
	if v := viper.GetStringSlice("data.columns"); len(v) != 0 {
		runCfg.Data.Columns = v
	}
	if v := viper.GetStringSlice("data.types"); len(v) != 0 {
		runCfg.Data.Types = v
	}
	if v := viper.GetInt("data.maxRows"); v != 0 {
		runCfg.Data.MaxRows = v
	}
	if v := viper.GetString("pred.column"); v != "" {
		runCfg.Pred.Column = v
	}
	if v := viper.GetString("pred.op"); v != "" {
		runCfg.Pred.Op = v
	}
	if viper.IsSet("pred.value") {
		runCfg.Pred.Value = viper.GetFloat64("pred.value")
	}
	if v := viper.GetInt("workers"); v != 0 {
		runCfg.Workers = v
	}
	runCfg.Debug.PrintSchema = runCfg.Debug.PrintSchema || viper.GetBool("debug.printSchema")
	runCfg.Debug.PrintResult = runCfg.Debug.PrintResult || viper.GetBool("debug.printResult")
	if v := viper.GetInt("debug.maxOutput"); v != 0 {
		runCfg.Debug.MaxOutput = v
	}
}

func initFilterCmd() {
	RootCmd.AddCommand(filterCmd)
	filterCmd.Flags().String("data_path", "", "parquet data path")
	filterCmd.Flags().StringSlice("columns", nil, "column names to read")
	filterCmd.Flags().StringSlice("types", nil, "column types: integer, bigint, double, date, varchar")
	filterCmd.Flags().Int("max_rows", 0, "limit on rows read")
	filterCmd.Flags().String("pred_column", "", "column the predicate applies to")
	filterCmd.Flags().String("pred_op", "nonnull", "predicate op: gt, lt, even, nonnull")
	filterCmd.Flags().Float64("pred_value", 0, "predicate comparison value")
	filterCmd.Flags().Int("workers", 0, "worker bound for the execution queue")
	filterCmd.Flags().Bool("print_schema", false, "print input/output schema trees")
	filterCmd.Flags().Bool("print_result", false, "print selected rows")

	viper.BindPFlag("data.path", filterCmd.Flags().Lookup("data_path"))
	viper.BindPFlag("data.columns", filterCmd.Flags().Lookup("columns"))
	viper.BindPFlag("data.types", filterCmd.Flags().Lookup("types"))
	viper.BindPFlag("data.maxRows", filterCmd.Flags().Lookup("max_rows"))
	viper.BindPFlag("pred.column", filterCmd.Flags().Lookup("pred_column"))
	viper.BindPFlag("pred.op", filterCmd.Flags().Lookup("pred_op"))
	viper.BindPFlag("pred.value", filterCmd.Flags().Lookup("pred_value"))
	viper.BindPFlag("workers", filterCmd.Flags().Lookup("workers"))
	viper.BindPFlag("debug.printSchema", filterCmd.Flags().Lookup("print_schema"))
	viper.BindPFlag("debug.printResult", filterCmd.Flags().Lookup("print_result"))
}

func parseType(s string) (common.LType, error) {
	switch strings.ToLower(s) {
	case "integer", "int32":
		return common.IntegerType(), nil
	case "bigint", "int64":
		return common.BigintType(), nil
	case "double", "float64":
		return common.DoubleType(), nil
	case "date":
		return common.DateType(), nil
	case "varchar", "string":
		return common.VarcharType(), nil
	default:
		return common.LType{}, fmt.Errorf("unknown column type %q", s)
	}
}

func runFilter(cfg *util.Config) error {
	if cfg.Data.Path == "" {
		return fmt.Errorf("no data path configured")
	}
	if len(cfg.Data.Columns) != len(cfg.Data.Types) {
		return fmt.Errorf("columns/types mismatch: %d vs %d",
			len(cfg.Data.Columns), len(cfg.Data.Types))
	}
	specs := make([]loader.ColumnSpec, len(cfg.Data.Columns))
	for i, name := range cfg.Data.Columns {
		typ, err := parseType(cfg.Data.Types[i])
		if err != nil {
			return err
		}
		specs[i] = loader.ColumnSpec{Name: name, Typ: typ, Index: int64(i)}
	}

	t, err := loader.ReadParquet(cfg.Data.Path, specs, cfg.Data.MaxRows)
	if err != nil {
		return err
	}
	util.Info("loaded table",
		zap.String("path", cfg.Data.Path),
		zap.Int("rows", t.Card()),
		zap.Int("cols", t.ColumnCount()))
	if cfg.Debug.PrintSchema {
		fmt.Print(t.ExplainSchema())
	}

	pred, err := buildPredicate(cfg, t)
	if err != nil {
		return err
	}

	alloc := util.NewTrackingAllocator(nil, 0)
	res, err := compact.Compact(context.Background(), t, pred, &compact.Options{
		Alloc:   alloc,
		Workers: cfg.Workers,
	})
	if err != nil {
		return err
	}
	util.Info("compacted table",
		zap.Int("inputRows", t.Card()),
		zap.Int("outputRows", res.Card()),
		zap.Int("peakBytes", alloc.PeakBytes()))
	if cfg.Debug.PrintSchema {
		fmt.Print(res.ExplainSchema())
	}
	if cfg.Debug.PrintResult {
		printRows(res, cfg.Debug.MaxOutput)
	}
	return nil
}

func buildPredicate(cfg *util.Config, t *column.Table) (compact.Predicate, error) {
	var col *column.Column
	for _, c := range t.Cols {
		if c.Name == cfg.Pred.Column {
			col = c
			break
		}
	}
	if col == nil && cfg.Pred.Op != "even" {
		return nil, fmt.Errorf("predicate column %q not in table", cfg.Pred.Column)
	}
	n := t.Card()

	switch cfg.Pred.Op {
	case "even":
		return compact.Bound(func(i int) bool { return i%2 == 0 }, n), nil
	case "nonnull":
		return compact.Bound(col.RowIsValid, n), nil
	case "gt", "lt":
		cmp, err := numericAccessor(col)
		if err != nil {
			return nil, err
		}
		v := cfg.Pred.Value
		if cfg.Pred.Op == "gt" {
			return compact.Bound(func(i int) bool {
				return col.RowIsValid(i) && cmp(i) > v
			}, n), nil
		}
		return compact.Bound(func(i int) bool {
			return col.RowIsValid(i) && cmp(i) < v
		}, n), nil
	default:
		return nil, fmt.Errorf("unknown predicate op %q", cfg.Pred.Op)
	}
}

func numericAccessor(col *column.Column) (func(i int) float64, error) {
	switch col.Typ.GetInternalType() {
	case common.INT32:
		data := column.GetSlice[int32](col)
		return func(i int) float64 { return float64(data[i]) }, nil
	case common.INT64:
		data := column.GetSlice[int64](col)
		return func(i int) float64 { return float64(data[i]) }, nil
	case common.DOUBLE:
		data := column.GetSlice[float64](col)
		return func(i int) float64 { return data[i] }, nil
	default:
		return nil, fmt.Errorf("predicate column type %s is not numeric", col.Typ.String())
	}
}

func printRows(t *column.Table, maxOutput int) {
	rows := t.Card()
	if maxOutput > 0 && maxOutput < rows {
		rows = maxOutput
	}
	for i := 0; i < rows; i++ {
		parts := make([]string, t.ColumnCount())
		for j, col := range t.Cols {
			parts[j] = formatCell(col, i)
		}
		fmt.Println(strings.Join(parts, "\t"))
	}
}

func formatCell(col *column.Column, i int) string {
	if !col.RowIsValid(i) {
		return "NULL"
	}
	switch col.Typ.GetInternalType() {
	case common.INT32:
		return fmt.Sprintf("%d", column.GetSlice[int32](col)[i])
	case common.INT64:
		return fmt.Sprintf("%d", column.GetSlice[int64](col)[i])
	case common.DOUBLE:
		return fmt.Sprintf("%g", column.GetSlice[float64](col)[i])
	case common.DATE:
		d := column.GetSlice[common.Date](col)[i]
		return d.String()
	case common.VARCHAR:
		return col.GetString(i)
	default:
		return "?"
	}
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		util.Error("compactor failed", zap.Error(err))
		os.Exit(1)
	}
}
