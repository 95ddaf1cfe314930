// Package export writes orders and order history as .xlsx workbooks.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"cafeteria-planner/internal/history"
	"cafeteria-planner/internal/order"

	"github.com/xuri/excelize/v2"
)

const (
	OrderFileName   = "pedido_comedor.xlsx"
	HistoryFileName = "historial_pedidos.xlsx"

	// ContentType is the MIME type of the generated workbooks.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	orderSheet   = "Pedido"
	historySheet = "Historial"
	dateLayout   = "02/01/2006 15:04:05"
)

// WriteOrder writes the consolidated item list as a single sheet.
func WriteOrder(w io.Writer, items []order.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", orderSheet)
	if err := writeHeader(f, orderSheet, "Ingrediente", "Cantidad", "Unidad"); err != nil {
		return err
	}

	for i, it := range items {
		row := i + 2
		f.SetCellValue(orderSheet, fmt.Sprintf("A%d", row), it.Name)
		f.SetCellValue(orderSheet, fmt.Sprintf("B%d", row), it.Quantity)
		f.SetCellValue(orderSheet, fmt.Sprintf("C%d", row), it.Unit)
	}

	f.SetColWidth(orderSheet, "A", "A", 30)
	f.SetColWidth(orderSheet, "B", "C", 12)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write order workbook: %w", err)
	}
	return nil
}

// WriteHistory writes one row per record, in the order given.
func WriteHistory(w io.Writer, records []history.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", historySheet)
	if err := writeHeader(f, historySheet, "Fecha", "Comensales", "Menú (JSON)", "Ingredientes"); err != nil {
		return err
	}

	for i, rec := range records {
		menuJSON, err := json.Marshal(rec.Menu)
		if err != nil {
			return fmt.Errorf("failed to marshal menu of record %s: %w", rec.ID, err)
		}

		row := i + 2
		f.SetCellValue(historySheet, fmt.Sprintf("A%d", row), rec.CreatedAt.Format(dateLayout))
		f.SetCellValue(historySheet, fmt.Sprintf("B%d", row), rec.Headcount)
		f.SetCellValue(historySheet, fmt.Sprintf("C%d", row), string(menuJSON))
		f.SetCellValue(historySheet, fmt.Sprintf("D%d", row), rec.ItemsSummary())
	}

	f.SetColWidth(historySheet, "A", "A", 20)
	f.SetColWidth(historySheet, "B", "B", 12)
	f.SetColWidth(historySheet, "C", "D", 60)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write history workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers ...string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, h)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	return f.SetRowStyle(sheet, 1, 1, style)
}
