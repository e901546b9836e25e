package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	defaultExportPrefix = "exports/purchase-orders"

	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	xlsxSheet       = "Purchase orders"
)

var exportHeader = []string{"id", "product_code", "country", "suggested_qty", "stock", "avg_daily", "note"}

// POExporter writes executed purchase orders to object storage as CSV or
// XLSX files.
type POExporter struct {
	store  ObjectStorage
	prefix string
	format string
}

// NewPOExporter builds an exporter. Unknown formats fall back to CSV.
func NewPOExporter(store ObjectStorage, prefix, format string) *POExporter {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = defaultExportPrefix
	}
	if format != FormatXLSX {
		format = FormatCSV
	}
	return &POExporter{store: store, prefix: prefix, format: format}
}

// Export uploads recs as <prefix>/<account>/<yyyy-mm-dd>/<run>.<format> and
// returns the object key. Nothing is written for an empty batch.
func (e *POExporter) Export(ctx context.Context, accountID, runID string, at time.Time, recs []domain.Recommendation) (string, error) {
	if len(recs) == 0 {
		return "", nil
	}

	rows, err := purchaseOrderRows(recs)
	if err != nil {
		return "", err
	}

	var (
		data        []byte
		contentType string
	)
	switch e.format {
	case FormatXLSX:
		data, err = encodeXLSX(rows)
		contentType = xlsxContentType
	default:
		data, err = encodeCSV(rows)
		contentType = "text/csv"
	}
	if err != nil {
		return "", err
	}

	key := path.Join(e.prefix, accountID, at.UTC().Format("2006-01-02"), runID+"."+e.format)
	if err := e.store.UploadObject(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// List returns the exports stored for an account.
func (e *POExporter) List(ctx context.Context, accountID string) ([]ObjectInfo, error) {
	return e.store.ListObjects(ctx, path.Join(e.prefix, accountID)+"/")
}

func purchaseOrderRows(recs []domain.Recommendation) ([][]string, error) {
	rows := make([][]string, 0, len(recs)+1)
	rows = append(rows, exportHeader)
	for _, rec := range recs {
		po, err := rec.Payload.PurchaseOrder()
		if err != nil {
			return nil, fmt.Errorf("recommendation %s: %w", rec.ID, err)
		}
		rows = append(rows, []string{
			rec.ID,
			domain.StringValue(rec.ProductCode),
			domain.StringValue(rec.Country),
			strconv.Itoa(po.SuggestedQty),
			strconv.FormatFloat(po.Stock, 'f', -1, 64),
			strconv.FormatFloat(po.AvgDaily, 'f', 2, 64),
			domain.StringValue(rec.Note),
		})
	}
	return rows, nil
}

func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv export: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return nil, fmt.Errorf("name export sheet: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode xlsx export: %w", err)
	}
	return buf.Bytes(), nil
}
