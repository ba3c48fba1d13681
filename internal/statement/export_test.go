package statement

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	ledgerdomain "github.com/helloword214/zmstore-pos-sub004/internal/ledger/domain"
	"github.com/helloword214/zmstore-pos-sub004/internal/money"
)

func sampleResult() *ledgerdomain.PeriodResult {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.Local)
	return &ledgerdomain.PeriodResult{
		CustomerID:     1,
		CustomerName:   "Aling Nena",
		PeriodStart:    start,
		PeriodEnd:      end,
		OpeningBalance: money.Round2(100),
		Entries: []ledgerdomain.Entry{
			{
				Kind:           ledgerdomain.EntryKindCharge,
				OccurredAt:     start.AddDate(0, 0, 2),
				Label:          "Order #10",
				Debit:          money.Round2(250),
				RunningBalance: money.Round2(350),
			},
			{
				Kind:           ledgerdomain.EntryKindSettlement,
				OccurredAt:     start.AddDate(0, 0, 5),
				Label:          "Payment (cash)",
				Credit:         money.Round2(200),
				RunningBalance: money.Round2(150),
			},
		},
		TotalDebits:    money.Round2(250),
		TotalCredits:   money.Round2(200),
		ClosingBalance: money.Round2(150),
	}
}

func TestBuildPDF(t *testing.T) {
	data, err := BuildPDF(sampleResult())
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF document")
	}
}

func TestBuildXLSX(t *testing.T) {
	data, err := BuildXLSX(sampleResult())
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	name, err := f.GetCellValue("summary", "B3")
	if err != nil {
		t.Fatalf("read summary cell: %v", err)
	}
	if name != "Aling Nena" {
		t.Fatalf("customer cell = %q", name)
	}

	label, err := f.GetCellValue("entries", "C2")
	if err != nil {
		t.Fatalf("read entries cell: %v", err)
	}
	if label != "Order #10" {
		t.Fatalf("first entry label = %q", label)
	}
}
