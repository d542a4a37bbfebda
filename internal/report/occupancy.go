// Package report renders occupancy statistics as spreadsheets.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"hostel-backend/internal/store"
)

const occupancySheet = "Occupancy"

var occupancyHeader = []string{
	"Room Type",
	"Total Rooms",
	"Occupied Rooms",
	"Total Capacity",
	"Total Occupancy",
	"Occupancy Rate",
}

// OccupancyXLSX renders stats as a workbook with one row per room type and a
// totals row.
func OccupancyXLSX(stats []store.OccupancyStat, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(occupancySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	percentStyle, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return nil, fmt.Errorf("failed to create percent style: %w", err)
	}

	for col, header := range occupancyHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(occupancySheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
	}
	if err := f.SetCellStyle(occupancySheet, "A1", "F1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetColWidth(occupancySheet, "A", "F", 18); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	var total store.OccupancyStat
	row := 2
	for _, s := range stats {
		if err := writeStatRow(f, row, string(s.Type), s); err != nil {
			return nil, err
		}
		total.TotalRooms += s.TotalRooms
		total.OccupiedRooms += s.OccupiedRooms
		total.TotalCapacity += s.TotalCapacity
		total.TotalOccupancy += s.TotalOccupancy
		row++
	}
	if err := writeStatRow(f, row, "TOTAL", total); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(occupancySheet, "F2", fmt.Sprintf("F%d", row), percentStyle); err != nil {
		return nil, fmt.Errorf("failed to set percent style: %w", err)
	}

	footer := fmt.Sprintf("A%d", row+2)
	if err := f.SetCellValue(occupancySheet, footer, "Generated at "+generatedAt.UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeStatRow(f *excelize.File, row int, label string, s store.OccupancyStat) error {
	rate := 0.0
	if s.TotalCapacity > 0 {
		rate = float64(s.TotalOccupancy) / float64(s.TotalCapacity)
	}
	values := []any{label, s.TotalRooms, s.OccupiedRooms, s.TotalCapacity, s.TotalOccupancy, rate}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(occupancySheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
