package dataset

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

func TestWriteEnrichedXLSX(t *testing.T) {
	t.Parallel()

	noms := sampleNominations()
	rows := []oscar.EnrichedRow{
		{NominationRecord: noms[0], Cost: ptr(100.0), Director: ptr("Christopher Nolan")},
		{NominationRecord: noms[1]},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEnrichedXLSX(&buf, rows))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[EnrichedSheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)

	header := make([]string, 0, len(sheet.Rows[0].Cells))
	for _, c := range sheet.Rows[0].Cells {
		header = append(header, c.Value)
	}
	assert.Equal(t, EnrichedHeader, header)

	first := sheet.Rows[1].Cells
	assert.Equal(t, "96th", first[0].Value)
	assert.Equal(t, "True", first[3].Value)
	assert.Equal(t, "Oppenheimer", first[4].Value)
	assert.Equal(t, "2023", first[6].Value)
	assert.Equal(t, "Christopher Nolan", first[8].Value)

	second := sheet.Rows[2].Cells
	assert.Equal(t, "False", second[3].Value)
	assert.Equal(t, "Killers of the Flower Moon", second[4].Value)
}
