package utils

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
)

// Accepted header names per column, compared case-insensitively
var (
	numberAliases  = []string{"number", "ticket number", "ticket_number", "ticket"}
	priceAliases   = []string{"price", "amount", "ticket price"}
	setSizeAliases = []string{"set_size", "set size", "setsize", "set"}
)

// ParseTicketFile reads a ticket sheet, choosing the format from the file name.
// .xlsx files are read with excelize; anything else is treated as CSV.
func ParseTicketFile(name string, r io.Reader) ([]models.TicketSpec, error) {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return ParseTicketXLSX(r)
	}
	return ParseTicketCSV(r)
}

// ParseTicketCSV reads ticket specs from CSV with a header row
func ParseTicketCSV(r io.Reader) ([]models.TicketSpec, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.Validation("INVALID_SHEET", "failed to read csv: %v", err)
	}
	return rowsToSpecs(rows, false)
}

// ParseTicketXLSX reads ticket specs from the first sheet of a workbook
func ParseTicketXLSX(r io.Reader) ([]models.TicketSpec, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.Validation("INVALID_SHEET", "failed to open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.Validation("INVALID_SHEET", "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.Validation("INVALID_SHEET", "failed to read sheet %s: %v", sheets[0], err)
	}
	// Spreadsheets drop leading zeros of numeric cells.
	return rowsToSpecs(rows, true)
}

func rowsToSpecs(rows [][]string, padNumbers bool) ([]models.TicketSpec, error) {
	if len(rows) == 0 {
		return nil, apperrors.Validation("INVALID_SHEET", "sheet is empty")
	}
	header := rows[0]
	numberIdx := findColumnIndex(header, numberAliases)
	priceIdx := findColumnIndex(header, priceAliases)
	setSizeIdx := findColumnIndex(header, setSizeAliases)
	if numberIdx == -1 || priceIdx == -1 {
		return nil, apperrors.Validation("INVALID_SHEET", "sheet needs number and price columns")
	}

	specs := make([]models.TicketSpec, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if isBlank(row) {
			continue
		}
		number := strings.TrimSpace(cell(row, numberIdx))
		if padNumbers {
			number = padTicketNumber(number)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(cell(row, priceIdx)))
		if err != nil {
			return nil, apperrors.Validation("INVALID_SHEET", "row %d: invalid price %q", line, cell(row, priceIdx))
		}
		spec := models.TicketSpec{Number: number, Price: price}
		if raw := strings.TrimSpace(cell(row, setSizeIdx)); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, apperrors.Validation("INVALID_SHEET", "row %d: invalid set size %q", line, raw)
			}
			spec.SetSize = n
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, apperrors.Validation("INVALID_SHEET", "sheet has no ticket rows")
	}
	return specs, nil
}

// findColumnIndex finds the index of a column by trying multiple possible names
func findColumnIndex(header []string, possibleNames []string) int {
	for i, column := range header {
		col := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(column, "\ufeff")))
		for _, name := range possibleNames {
			if col == name {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func padTicketNumber(s string) string {
	if s == "" || len(s) >= models.TicketNumberLength {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	return strings.Repeat("0", models.TicketNumberLength-len(s)) + s
}
