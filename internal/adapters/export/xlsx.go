package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/evdms/dealer-console/internal/domain"
)

// QuoteSheet renders a confirmation summary as an xlsx workbook dealer
// staff can hand to the customer. Figures come straight from the server's
// summary; nothing is recomputed here.
func QuoteSheet(sum *domain.OrderSummary) (*bytes.Buffer, error) {
	if sum == nil {
		return nil, fmt.Errorf("summary required")
	}
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	set := func(cell string, v any) { _ = f.SetCellValue(sheet, cell, v) }

	set("A1", "Order")
	set("B1", sum.OrderID)
	set("A2", "Date")
	set("B2", sum.OrderDate.Format("2006-01-02"))
	set("A3", "Customer")
	set("B3", sum.Customer.Name)
	set("A4", "Phone")
	set("B4", sum.Customer.Phone)
	set("A5", "Email")
	set("B5", sum.Customer.Email)

	header := []string{"Model", "Variant", "Color", "Qty", "Unit price", "Line total"}
	for i, h := range header {
		col, _ := excelize.ColumnNumberToName(i + 1)
		set(col+"7", h)
	}
	row := 8
	for _, l := range sum.Lines {
		set(fmt.Sprintf("A%d", row), l.ModelName)
		set(fmt.Sprintf("B%d", row), l.VariantName)
		set(fmt.Sprintf("C%d", row), l.Color)
		set(fmt.Sprintf("D%d", row), l.Quantity)
		set(fmt.Sprintf("E%d", row), l.UnitPrice)
		set(fmt.Sprintf("F%d", row), l.LineTotal)
		row++
	}
	row++
	set(fmt.Sprintf("E%d", row), "Subtotal")
	set(fmt.Sprintf("F%d", row), sum.Subtotal)
	row++
	set(fmt.Sprintf("E%d", row), "Discount")
	set(fmt.Sprintf("F%d", row), sum.Discount)
	row++
	set(fmt.Sprintf("E%d", row), "Total")
	set(fmt.Sprintf("F%d", row), sum.Total)
	row++
	set(fmt.Sprintf("E%d", row), "Payment")
	set(fmt.Sprintf("F%d", row), string(sum.PaymentMethod))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf, nil
}
