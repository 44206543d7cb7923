package dataset

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx/v2"

	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

// EnrichedSheetName names the single worksheet of the XLSX export.
const EnrichedSheetName = "oscar_winners_enriched"

// WriteEnrichedXLSX writes the merged dataset as a workbook with the same
// columns as the CSV. Cost and Release are numeric cells.
func WriteEnrichedXLSX(w io.Writer, rows []oscar.EnrichedRow) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(EnrichedSheetName)
	if err != nil {
		return fmt.Errorf("xlsx: add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range EnrichedHeader {
		header.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range nominationCells(r.NominationRecord) {
			row.AddCell().SetString(v)
		}
		row.AddCell().SetInt(r.Release())
		cost := row.AddCell()
		if r.Cost != nil {
			cost.SetFloat(*r.Cost)
		}
		row.AddCell().SetString(deref(r.Director))
		row.AddCell().SetString(deref(r.Runtime))
		row.AddCell().SetString(deref(r.IMDbID))
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}
