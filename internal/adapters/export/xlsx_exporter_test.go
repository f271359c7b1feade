package export

import (
	"bytes"
	"testing"
	"time"

	"cargo-logistics-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXExporterWritesHeadersRowsAndTotals(t *testing.T) {
	r := &domain.Report{
		Name: "Shipments Q1",
		Type: domain.ReportShipments,
		Parameters: domain.ReportParameters{
			DateFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			DateTo:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		Result: domain.ReportTable{
			Columns: []string{"Tracking Number", "Client", "Status"},
			Rows: [][]string{
				{"CTC260101ABCDEF", "Acme", "delivered"},
				{"CTC260102GHJKLM", "Globex", "in_transit"},
			},
			Totals: map[string]string{"shipments": "2", "delivered": "1"},
		},
	}

	var buf bytes.Buffer
	x := XLSXExporter{}
	require.NoError(t, x.Export(&buf, r))
	assert.Equal(t, "xlsx", x.Extension())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{dataSheet, totalsSheet}, f.GetSheetList())

	rows, err := f.GetRows(dataSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Tracking Number", "Client", "Status"}, rows[0])
	assert.Equal(t, "Globex", rows[2][1])

	totals, err := f.GetRows(totalsSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Report", "Shipments Q1"}, totals[0])
	assert.Equal(t, []string{"delivered", "1"}, totals[4])
	assert.Equal(t, []string{"shipments", "2"}, totals[5])
}
