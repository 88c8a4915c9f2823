// Package export renders order lists as Excel workbooks.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"orderbot/internal/storage"
)

const sheetName = "Orders"

type Translator interface {
	T(key, lang string, params map[string]any) string
}

type XLSX struct {
	tr Translator
}

func NewXLSX(tr Translator) *XLSX {
	return &XLSX{tr: tr}
}

func (x *XLSX) FileExt() string {
	return "xlsx"
}

var headerKeys = []string{
	"field.id",
	"field.user_id",
	"field.username",
	"field.order_text",
	"field.full_name",
	"field.delivery_address",
	"field.payment_method",
	"field.contact_phone",
	"field.delivery_notes",
	"field.status",
	"field.created_at",
	"field.sent_at",
	"field.received_at",
}

// Export writes one row per order under localized headers.
func (x *XLSX) Export(orders []storage.Order, lang string) ([]byte, error) {
	const operation = "export.XLSX.Export"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("%s: failed to create sheet: %w", operation, err)
	}

	for col, key := range headerKeys {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, x.tr.T(key, lang, nil)); err != nil {
			return nil, fmt.Errorf("%s: failed to write header: %w", operation, err)
		}
	}

	for row, o := range orders {
		payment := ""
		if o.PaymentMethod != "" {
			payment = x.tr.T("payment."+o.PaymentMethod, lang, nil)
		}

		data := []interface{}{
			o.ID,
			o.UserID,
			o.Username,
			o.OrderText,
			o.FullName,
			o.DeliveryAddress,
			payment,
			o.ContactPhone,
			o.DeliveryNotes,
			x.tr.T("status."+o.Status, lang, nil),
			o.CreatedAt.Format("2006-01-02 15:04"),
			formatOptional(o.SentAt),
			formatOptional(o.ReceivedAt),
		}
		for col, value := range data {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("%s: failed to write row %d: %w", operation, row+2, err)
			}
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(headerKeys), 1)
		_ = f.SetCellStyle(sheetName, "A1", lastHeader, style)
	}
	_ = f.SetColWidth(sheetName, "D", "D", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to write workbook: %w", operation, err)
	}
	return buf.Bytes(), nil
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
