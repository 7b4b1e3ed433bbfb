package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alp4ka/metapager"
	"github.com/Alp4ka/metapager/gormstore"
)

var listFlags struct {
	orderBy  string
	order    string
	metaKey  string
	metaType string
	first    int
	after    string
	before   string
	author   uint64
	status   string
	where    []string
}

// listCmd prints one page as JSON. --orderby accepts a name or a JSON object
// such as '{"price":"ASC","title":"DESC"}'. Every --where key=value adds an
// equality clause named after the key, usable as an ordering name.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print one page of records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter, err := listFilter()
		if err != nil {
			return err
		}

		raw := metapager.RawRequest{
			First:   listFlags.first,
			After:   listFlags.after,
			Before:  listFlags.before,
			OrderBy: orderByJSON(listFlags.orderBy),
			Order:   listFlags.order,
		}

		req, err := raw.Decode(filter)
		if err != nil {
			return err
		}

		registry := prometheus.NewRegistry()
		scanner := metapager.InstrumentScanner[*gormstore.Record](current.store, metapager.NewScanMetrics(registry))

		pager := metapager.NewPager(scanner, gormstore.NewResolver()).
			WithLimits(current.cfg.Limits()).
			WithLogger(current.logger.Named("pager"))

		page, err := pager.Paginate(cmd.Context(), req)
		if err != nil {
			return err
		}

		current.logger.Debug("Page fetched",
			zap.Stringer("order", page.Order),
			zap.Int("limit", page.AppliedLimit),
			zap.Int("rows", len(page.Rows)),
		)
		if families, gatherErr := registry.Gather(); gatherErr == nil {
			current.logger.Info("Scan statistics", scanStats(families)...)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(page)
	},
}

// scanStats summarizes the histograms collected by metapager.ScanMetrics.
func scanStats(families []*dto.MetricFamily) []zap.Field {
	var fields []zap.Field
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			h := m.GetHistogram()
			if h == nil {
				continue
			}

			switch mf.GetName() {
			case "metapager_scan_duration_seconds":
				fields = append(fields,
					zap.Uint64("scans", h.GetSampleCount()),
					zap.Duration("scan_duration", time.Duration(h.GetSampleSum()*float64(time.Second))),
				)
			case "metapager_scan_rows":
				fields = append(fields, zap.Float64("scanned_rows", h.GetSampleSum()))
			}
		}
	}

	return fields
}

// orderByJSON accepts a bare name as well as JSON.
func orderByJSON(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}

	quoted, _ := json.Marshal(s)

	return quoted
}

func listFilter() (metapager.Filter, error) {
	var filter metapager.Filter

	if listFlags.metaKey != "" {
		typ, err := metapager.ParseValueType(listFlags.metaType)
		if err != nil {
			return filter, err
		}

		filter.MetaKey = listFlags.metaKey
		filter.MetaType = typ
	}

	if listFlags.author != 0 {
		filter.Columns = append(filter.Columns, metapager.ColumnCondition{
			Column: gormstore.ColumnAuthorID, Operator: metapager.OperatorEq, Value: listFlags.author,
		})
	}
	if listFlags.status != "" {
		filter.Columns = append(filter.Columns, metapager.ColumnCondition{
			Column: gormstore.ColumnStatus, Operator: metapager.OperatorEq, Value: listFlags.status,
		})
	}

	pairs, err := parsePairs(listFlags.where)
	if err != nil {
		return filter, fmt.Errorf("invalid --where: %w", err)
	}
	for key, value := range pairs {
		filter.Clauses = append(filter.Clauses, metapager.Clause{
			Name: key, Attribute: key, Compare: metapager.CompareEq, Value: value,
		})
	}

	return filter, nil
}

func init() {
	f := listCmd.Flags()
	f.StringVar(&listFlags.orderBy, "orderby", "", "ordering name or JSON object of name to direction")
	f.StringVar(&listFlags.order, "order", "", "direction of a single ordering name (ASC or DESC)")
	f.StringVar(&listFlags.metaKey, "meta-key", "", "attribute bound to meta_value and meta_value_num")
	f.StringVar(&listFlags.metaType, "meta-type", "", "comparison type of meta_value")
	f.IntVar(&listFlags.first, "first", 0, "page size")
	f.StringVar(&listFlags.after, "after", "", "end cursor of the previous page")
	f.StringVar(&listFlags.before, "before", "", "start cursor of the next page")
	f.Uint64Var(&listFlags.author, "author", 0, "only records of this author")
	f.StringVar(&listFlags.status, "status", "", "only records with this status")
	f.StringArrayVar(&listFlags.where, "where", nil, "attribute key=value equality clause, repeatable")
}
