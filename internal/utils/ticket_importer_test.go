package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
)

func TestParseTicketCSV(t *testing.T) {
	t.Run("header aliases and optional set size", func(t *testing.T) {
		in := "Ticket Number,Price,Set Size\n123456,80,2\n000111,80.50,\n\n"
		specs, err := ParseTicketCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, specs, 2)
		assert.Equal(t, "123456", specs[0].Number)
		assert.Equal(t, 2, specs[0].SetSize)
		assert.Equal(t, "000111", specs[1].Number)
		assert.Equal(t, "80.5", specs[1].Price.String())
		assert.Equal(t, 0, specs[1].SetSize)
	})

	t.Run("missing price column", func(t *testing.T) {
		_, err := ParseTicketCSV(strings.NewReader("number\n123456\n"))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("bad price names the row", func(t *testing.T) {
		_, err := ParseTicketCSV(strings.NewReader("number,price\n123456,80\n654321,abc\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 3")
	})

	t.Run("header only", func(t *testing.T) {
		_, err := ParseTicketCSV(strings.NewReader("number,price\n"))
		assert.Error(t, err)
	})
}

func TestParseTicketXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"number", "price", "set_size"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{12345, 80, 1}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"999999", "120", 3}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	specs, err := ParseTicketFile("tickets.XLSX", &buf)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "012345", specs[0].Number)
	assert.Equal(t, "999999", specs[1].Number)
	assert.Equal(t, 3, specs[1].SetSize)
	assert.Equal(t, "120", specs[1].Price.String())
}

func TestPadTicketNumber(t *testing.T) {
	assert.Equal(t, "000042", padTicketNumber("42"))
	assert.Equal(t, "123456", padTicketNumber("123456"))
	assert.Equal(t, "12a", padTicketNumber("12a"))
	assert.Equal(t, "", padTicketNumber(""))
}
