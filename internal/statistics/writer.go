package statistics

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	EquityFile       = "equity.csv"
	TransactionsFile = "transactions.csv"
	ReportFile       = "stats.yaml"
)

type equityRow struct {
	Timestamp string  `csv:"timestamp"`
	Equity    float64 `csv:"equity"`
}

type transactionRow struct {
	types.Transaction
	Symbol   string `csv:"symbol"`
	Exchange string `csv:"exchange"`
}

// WriteEquityCSV writes the curve with header timestamp,equity.
func WriteEquityCSV(w io.Writer, curve []types.EquityPoint) error {
	rows := make([]*equityRow, 0, len(curve))
	for _, p := range curve {
		rows = append(rows, &equityRow{Timestamp: p.Timestamp.UTC().Format(time.RFC3339), Equity: p.Equity})
	}

	if len(rows) == 0 {
		_, err := io.WriteString(w, "timestamp,equity\n")

		return err
	}

	return gocsv.Marshal(rows, w)
}

func WriteTransactionsCSV(w io.Writer, transactions []types.Transaction) error {
	rows := make([]*transactionRow, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, &transactionRow{Transaction: tx, Symbol: tx.Asset.Symbol, Exchange: tx.Asset.Exchange})
	}

	return gocsv.Marshal(rows, w)
}

func WriteReportYAML(w io.Writer, report types.MetricsReport) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()

	return enc.Encode(report)
}

// WriteResults writes the report, the equity curve and the fills of s into folder.
func WriteResults(folder string, s Statistics) error {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeStorageWriteFailed, "failed to create results folder", err)
	}

	writes := []struct {
		name  string
		write func(io.Writer) error
	}{
		{ReportFile, func(w io.Writer) error { return WriteReportYAML(w, s.Report()) }},
		{EquityFile, func(w io.Writer) error { return WriteEquityCSV(w, s.EquityCurve()) }},
		{TransactionsFile, func(w io.Writer) error { return WriteTransactionsCSV(w, s.Transactions()) }},
	}

	for _, item := range writes {
		if err := writeFile(filepath.Join(folder, item.name), item.write); err != nil {
			return err
		}
	}

	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStorageWriteFailed, err, "failed to create %s", path)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return errors.Wrapf(errors.ErrCodeStorageWriteFailed, err, "failed to write %s", path)
	}

	return nil
}
