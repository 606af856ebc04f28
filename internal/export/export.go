// internal/export/export.go
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rovshanmuradov/solana-market-collector/internal/market"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ParseFormat accepts "csv" or "json" in any case.
func ParseFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(s)); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format        ExportFormat
	TokenFilter   string  // only this address
	MinConfidence float64 // drop records below this confidence
	OutputDir     string
}

// RecordExporter writes market record snapshots to disk.
type RecordExporter struct {
	logger *zap.Logger
	now    func() time.Time
	create func(path string) (io.WriteCloser, error)
}

func NewRecordExporter(logger *zap.Logger) *RecordExporter {
	return &RecordExporter{
		logger: logger.Named("export"),
		now:    time.Now,
		create: func(path string) (io.WriteCloser, error) { return os.Create(path) },
	}
}

// ExportRecords filters records, sorts them by LastUpdated and writes them
// to a timestamped file in OutputDir. It returns the file path.
func (e *RecordExporter) ExportRecords(records []*market.TokenMarketRecord, options ExportOptions) (string, error) {
	filtered := filterRecords(records, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no records match the export criteria")
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].LastUpdated.Before(filtered[j].LastUpdated)
	})

	outputPath := filepath.Join(options.OutputDir, e.generateFilename(options))
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := e.create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}

	if err := e.Write(file, filtered, options.Format); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}

	e.logger.Info("Records exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

// Write encodes records to w without touching the filesystem.
func (e *RecordExporter) Write(w io.Writer, records []*market.TokenMarketRecord, format ExportFormat) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, records)
	case FormatJSON:
		return e.writeJSON(w, records)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func filterRecords(records []*market.TokenMarketRecord, options ExportOptions) []*market.TokenMarketRecord {
	var filtered []*market.TokenMarketRecord
	for _, r := range records {
		if r == nil {
			continue
		}
		if options.TokenFilter != "" && r.Address != options.TokenFilter {
			continue
		}
		if r.Confidence < options.MinConfidence {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func (e *RecordExporter) generateFilename(options ExportOptions) string {
	timestamp := e.now().Format("20060102_150405")

	prefix := "market_all"
	if options.TokenFilter != "" {
		short := options.TokenFilter
		if len(short) > 8 {
			short = short[:8]
		}
		prefix = "market_" + short
	}
	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

// CSVHeaders lists the flattened columns, in row order.
func CSVHeaders() []string {
	return []string{
		"address", "name", "symbol", "price", "price_change_24h", "volume_24h",
		"liquidity", "market_cap", "fdv", "holders", "volatility",
		"liquidity_risk", "rug_pull_risk", "concentration_risk",
		"confidence", "sources", "last_updated",
	}
}

// CSVRow flattens a record; unset values become empty cells.
func CSVRow(r *market.TokenMarketRecord) []string {
	return []string{
		r.Address,
		r.Name,
		r.Symbol,
		formatFloat(r.Price),
		formatFloat(r.PriceChange24h),
		formatFloat(r.Volume24h),
		formatFloat(r.Liquidity),
		formatFloat(r.MarketCap),
		formatFloat(r.FullyDilutedValuation),
		formatInt(r.HoldersCount),
		formatFloat(r.Volatility),
		string(r.LiquidityRisk),
		string(r.RugPullRisk),
		string(r.ConcentrationRisk),
		strconv.FormatFloat(r.Confidence, 'f', 2, 64),
		strings.Join(r.DataSource, "|"),
		r.LastUpdated.UTC().Format(time.RFC3339),
	}
}

// formatFloat writes plain decimal notation; sub-cent prices would
// otherwise come out as 1e-05.
func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return decimal.NewFromFloat(*v).String()
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func writeCSV(w io.Writer, records []*market.TokenMarketRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, r := range records {
		if err := writer.Write(CSVRow(r)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func (e *RecordExporter) writeJSON(w io.Writer, records []*market.TokenMarketRecord) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime  time.Time                   `json:"export_time"`
		RecordCount int                         `json:"record_count"`
		Records     []*market.TokenMarketRecord `json:"records"`
		Summary     ExportSummary               `json:"summary"`
	}{
		ExportTime:  e.now(),
		RecordCount: len(records),
		Records:     records,
		Summary:     calculateSummary(records),
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportSummary contains summary statistics for exported records
type ExportSummary struct {
	TotalRecords   int            `json:"total_records"`
	UniqueTokens   int            `json:"unique_tokens"`
	AvgConfidence  float64        `json:"avg_confidence"`
	SourceCounts   map[string]int `json:"source_counts"`
	HighRiskTokens int            `json:"high_risk_tokens"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
}

func calculateSummary(records []*market.TokenMarketRecord) ExportSummary {
	summary := ExportSummary{
		TotalRecords: len(records),
		SourceCounts: make(map[string]int),
	}
	if len(records) == 0 {
		return summary
	}

	summary.StartDate = records[0].LastUpdated
	summary.EndDate = records[len(records)-1].LastUpdated

	tokens := make(map[string]bool)
	var confidence float64
	for _, r := range records {
		tokens[r.Address] = true
		confidence += r.Confidence
		for _, s := range r.DataSource {
			summary.SourceCounts[s]++
		}
		if r.LiquidityRisk == market.RiskHigh || r.RugPullRisk == market.RiskHigh {
			summary.HighRiskTokens++
		}
	}

	summary.UniqueTokens = len(tokens)
	summary.AvgConfidence = confidence / float64(len(records))
	return summary
}
