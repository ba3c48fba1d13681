// Package statement renders a computed ledger period as downloadable
// statement documents.
package statement

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	ledgerdomain "github.com/helloword214/zmstore-pos-sub004/internal/ledger/domain"
)

const dateLayout = "2006-01-02"

// BuildPDF renders a customer statement as a PDF document.
func BuildPDF(result *ledgerdomain.PeriodResult) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Customer Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Customer: %s", result.CustomerName))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s",
		result.PeriodStart.Format(dateLayout), result.PeriodEnd.Format(dateLayout)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Opening Balance: %s", result.OpeningBalance))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(24, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(76, 6, "Description", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Debit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Credit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Balance", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, entry := range result.Entries {
		pdf.CellFormat(24, 6, entry.OccurredAt.Format(dateLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(76, 6, entry.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, cellAmount(entry.Kind == ledgerdomain.EntryKindCharge, entry.Debit.String()), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, cellAmount(entry.Kind == ledgerdomain.EntryKindSettlement, entry.Credit.String()), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, entry.RunningBalance.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Total Debits: %s", result.TotalDebits))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Credits: %s", result.TotalCredits))
	pdf.Ln(5)
	if result.UnappliedCredits != 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Unapplied Credits: %s", result.UnappliedCredits))
		pdf.Ln(5)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Closing Balance: %s", result.ClosingBalance))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildXLSX renders a customer statement as an XLSX workbook with a summary
// sheet and an entries sheet.
func BuildXLSX(result *ledgerdomain.PeriodResult) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	entriesSheet := "entries"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(entriesSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Customer Statement")
	_ = f.SetCellValue(summarySheet, "A3", "Customer")
	_ = f.SetCellValue(summarySheet, "B3", result.CustomerName)
	_ = f.SetCellValue(summarySheet, "A4", "Period Start")
	_ = f.SetCellValue(summarySheet, "B4", result.PeriodStart.Format(dateLayout))
	_ = f.SetCellValue(summarySheet, "A5", "Period End")
	_ = f.SetCellValue(summarySheet, "B5", result.PeriodEnd.Format(dateLayout))
	_ = f.SetCellValue(summarySheet, "A6", "Opening Balance")
	_ = f.SetCellValue(summarySheet, "B6", float64(result.OpeningBalance))
	_ = f.SetCellValue(summarySheet, "A7", "Total Debits")
	_ = f.SetCellValue(summarySheet, "B7", float64(result.TotalDebits))
	_ = f.SetCellValue(summarySheet, "A8", "Total Credits")
	_ = f.SetCellValue(summarySheet, "B8", float64(result.TotalCredits))
	_ = f.SetCellValue(summarySheet, "A9", "Unapplied Credits")
	_ = f.SetCellValue(summarySheet, "B9", float64(result.UnappliedCredits))
	_ = f.SetCellValue(summarySheet, "A10", "Closing Balance")
	_ = f.SetCellValue(summarySheet, "B10", float64(result.ClosingBalance))

	_ = f.SetCellValue(entriesSheet, "A1", "Date")
	_ = f.SetCellValue(entriesSheet, "B1", "Kind")
	_ = f.SetCellValue(entriesSheet, "C1", "Description")
	_ = f.SetCellValue(entriesSheet, "D1", "Debit")
	_ = f.SetCellValue(entriesSheet, "E1", "Credit")
	_ = f.SetCellValue(entriesSheet, "F1", "Unapplied")
	_ = f.SetCellValue(entriesSheet, "G1", "Balance")
	for i, entry := range result.Entries {
		row := i + 2
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("A%d", row), entry.OccurredAt.Format(dateLayout))
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("B%d", row), string(entry.Kind))
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("C%d", row), entry.Label)
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("D%d", row), float64(entry.Debit))
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("E%d", row), float64(entry.Credit))
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("F%d", row), float64(entry.UnappliedCredit))
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("G%d", row), float64(entry.RunningBalance))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellAmount(show bool, value string) string {
	if !show {
		return ""
	}
	return value
}
