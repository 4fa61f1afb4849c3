package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/pkg/dateutil"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// Header aliases per column, lowercase with spaces and underscores removed.
// Operators upload sheets from several back offices, some localized.
var (
	exchangeHeaders = []string{"exchange", "exchangename", "platform", "交易所"}
	uidHeaders      = []string{"uid", "userid", "useruid", "用户uid", "用户id"}
	dateHeaders     = []string{"date", "day", "tradedate", "tradeday", "日期", "交易日期"}
	volumeHeaders   = []string{"volume", "tradevolume", "vol", "amount", "交易量", "交易额"}
	feeRateHeaders  = []string{"feerate", "rate", "fee", "费率", "手续费率"}
	rebateHeaders   = []string{"autorebate", "rebate", "自动返佣", "返佣"}
)

// ParseTradeFile parses an uploaded trade report into rows. File type is
// decided by extension: .csv or .xlsx. Rows missing any of exchange, uid,
// date or volume are dropped silently so a sheet with trailing notes or
// subtotal lines still imports.
func ParseTradeFile(data []byte, filename string) ([]model.TradeRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(data)
	case ".xlsx":
		return parseXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
	}
}

func parseCSV(data []byte) ([]model.TradeRow, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv failed: %w", err)
		}
		records = append(records, record)
	}
	return rowsFromRecords(records)
}

func parseXLSX(data []byte) ([]model.TradeRow, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx failed: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}
	records, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows failed: %w", err)
	}
	return rowsFromRecords(records)
}

func rowsFromRecords(records [][]string) ([]model.TradeRow, error) {
	if len(records) == 0 {
		return nil, errors.New("file is empty")
	}

	columns := mapColumns(records[0])
	if columns.exchange < 0 || columns.uid < 0 || columns.date < 0 || columns.volume < 0 {
		return nil, errors.New("header row is missing required columns")
	}

	rows := make([]model.TradeRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row, ok := rowFromRecord(columns, record)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type columnIndex struct {
	exchange, uid, date, volume, feeRate, rebate int
}

func mapColumns(header []string) columnIndex {
	columns := columnIndex{exchange: -1, uid: -1, date: -1, volume: -1, feeRate: -1, rebate: -1}
	for i, cell := range header {
		key := normalizeHeader(cell)
		switch {
		case columns.exchange < 0 && matchesHeader(key, exchangeHeaders):
			columns.exchange = i
		case columns.uid < 0 && matchesHeader(key, uidHeaders):
			columns.uid = i
		case columns.date < 0 && matchesHeader(key, dateHeaders):
			columns.date = i
		case columns.volume < 0 && matchesHeader(key, volumeHeaders):
			columns.volume = i
		case columns.feeRate < 0 && matchesHeader(key, feeRateHeaders):
			columns.feeRate = i
		case columns.rebate < 0 && matchesHeader(key, rebateHeaders):
			columns.rebate = i
		}
	}
	return columns
}

func normalizeHeader(cell string) string {
	key := strings.ToLower(strings.TrimSpace(cell))
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "_", "")
	return key
}

func matchesHeader(key string, aliases []string) bool {
	for _, alias := range aliases {
		if key == alias {
			return true
		}
	}
	return false
}

func rowFromRecord(columns columnIndex, record []string) (model.TradeRow, bool) {
	exchange := cellAt(record, columns.exchange)
	uid := cellAt(record, columns.uid)
	if exchange == "" || uid == "" {
		return model.TradeRow{}, false
	}

	day, ok := parseCellDate(cellAt(record, columns.date))
	if !ok {
		return model.TradeRow{}, false
	}
	volume, ok := parseCellDecimal(cellAt(record, columns.volume))
	if !ok {
		return model.TradeRow{}, false
	}
	feeRate, _ := parseCellDecimal(cellAt(record, columns.feeRate))
	rebate, _ := parseCellDecimal(cellAt(record, columns.rebate))

	raw := map[string]interface{}{
		"exchange": exchange,
		"uid":      uid,
		"date":     cellAt(record, columns.date),
		"volume":   cellAt(record, columns.volume),
	}

	return model.TradeRow{
		Exchange:   exchange,
		UID:        uid,
		TradeDay:   dateutil.StartOfDayUTC(day),
		Volume:     volume,
		FeeRate:    feeRate,
		AutoRebate: rebate,
		Raw:        raw,
	}, true
}

func cellAt(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

func parseCellDecimal(cell string) (decimal.Decimal, bool) {
	if cell == "" {
		return decimal.Zero, false
	}
	cell = strings.ReplaceAll(cell, ",", "")
	cell = strings.TrimSuffix(cell, "%")
	d, err := decimal.NewFromString(cell)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseCellDate accepts common date strings, unix timestamps and excel
// serial day numbers (days since 1899-12-30, how xlsx stores dates).
func parseCellDate(cell string) (time.Time, bool) {
	if cell == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "2006/01/02", "01-02-06", "1/2/06", time.RFC3339, "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, cell); err == nil {
			return parsed.UTC(), true
		}
	}
	n, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return time.Time{}, false
	}
	switch {
	case n >= 1e12:
		return time.UnixMilli(int64(n)).UTC(), true
	case n >= 1e9:
		return time.Unix(int64(n), 0).UTC(), true
	case n > 0 && n < 1e6:
		epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
		return epoch.AddDate(0, 0, int(n)), true
	}
	return time.Time{}, false
}
