package audit

import (
	"bytes"
	"fmt"

	"github.com/mahosalu/estadisticas/internal/database/models"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Logs"

var exportHeader = []string{"ID", "Fecha y Hora", "Usuario", "Acción", "Detalles"}

// ExportXLSX renders entries as a spreadsheet: bold header, one row per
// entry, every column sized to its longest value. Read-only projection,
// nothing is mutated.
func ExportXLSX(entries []models.AuditLog) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), exportSheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	widths := make([]int, len(exportHeader))
	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(exportSheet, cell, title); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
		widths[col] = len(title)
	}

	for i, entry := range entries {
		values := []string{
			entry.ID.String(),
			entry.Timestamp.Format("02-01-2006 15:04:05"),
			entry.UserName,
			entry.Action,
			entry.Details,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return nil, err
			}
			if len(value) > widths[col] {
				widths[col] = len(value)
			}
		}
	}

	for col, width := range widths {
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(exportSheet, name, name, float64(width+2)); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
