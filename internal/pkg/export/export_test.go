package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() Table {
	return Table{
		Title:   "Salaries 3/2025",
		Headers: []string{"Employee", "Month", "Net Salary"},
		Rows: [][]string{
			{"Ayu Lestari", "3", "28000.00"},
			{"Budi, Santoso", "3", "30000.00"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"excel", FormatXLSX, false},
		{"pdf", FormatPDF, false},
		{"docx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedFormat)
				assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderCSV(t *testing.T) {
	out, err := NewRenderer().Render(sampleTable(), FormatCSV)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Employee", "Month", "Net Salary"}, records[0])
	assert.Equal(t, "Budi, Santoso", records[2][0])
}

func TestRenderXLSX(t *testing.T) {
	out, err := NewRenderer().Render(sampleTable(), FormatXLSX)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	sheet := "Salaries 3-2025"
	header, err := f.GetCellValue(sheet, "C1")
	require.NoError(t, err)
	assert.Equal(t, "Net Salary", header)

	name, err := f.GetCellValue(sheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Ayu Lestari", name)
}

func TestRenderPDF(t *testing.T) {
	out, err := NewRenderer().Render(sampleTable(), FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	table := sampleTable()
	table.Rows = append(table.Rows, []string{"only one cell"})

	_, err := NewRenderer().Render(table, FormatCSV)
	assert.Error(t, err)
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := NewRenderer().Render(sampleTable(), Format("odt"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
