package services

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/feirahub/commission-engine/models"
	"github.com/xuri/excelize/v2"
)

// ReportService builds operator-facing exports of payout data
type ReportService interface {
	BuildPayoutReport(payout *models.CommissionPayout, transactions []*models.CommissionTransaction) ([]byte, error)
}

// ReportServiceImpl implements ReportService with xlsx workbooks
type ReportServiceImpl struct{}

// NewReportService creates a new report service
func NewReportService() ReportService {
	return &ReportServiceImpl{}
}

// BuildPayoutReport renders a payout and its ledger lines as an xlsx workbook:
// a summary sheet with the payout snapshot and a transactions sheet with one
// row per ledger entry.
func (s *ReportServiceImpl) BuildPayoutReport(payout *models.CommissionPayout, transactions []*models.CommissionTransaction) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	summary := "Summary"
	xl.SetSheetName(xl.GetSheetName(0), summary)

	summaryRows := [][]any{
		{"payout_id", payout.ID},
		{"uuid", payout.UUID.String()},
		{"store_id", payout.StoreID},
		{"period", payout.Period},
		{"status", string(payout.Status)},
		{"total_commission", payout.TotalCommission},
		{"total_payout", payout.TotalPayout},
		{"transaction_count", payout.TransactionCount},
		{"payment_reference", payout.PaymentReference},
		{"created_at", payout.CreatedAt.Format(time.RFC3339)},
	}
	for i, row := range summaryRows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := xl.SetSheetRow(summary, cell, &row); err != nil {
			return nil, err
		}
	}

	sheet := "Transactions"
	if _, err := xl.NewSheet(sheet); err != nil {
		return nil, err
	}

	header := []string{"id", "uuid", "order_id", "category_id", "order_amount", "rate_applied", "commission_amount", "status", "created_at", "paid_at"}
	if err := xl.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	for ri, tx := range transactions {
		paidAt := ""
		if tx.PaidAt != nil {
			paidAt = tx.PaidAt.Format(time.RFC3339)
		}
		row := []any{
			strconv.FormatUint(uint64(tx.ID), 10),
			tx.UUID.String(),
			tx.OrderID,
			strconv.FormatUint(uint64(tx.CategoryID), 10),
			tx.OrderAmount,
			tx.CommissionRateApplied,
			tx.CommissionAmount,
			string(tx.Status),
			tx.CreatedAt.Format(time.RFC3339),
			paidAt,
		}
		cell := fmt.Sprintf("A%d", ri+2)
		if err := xl.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := xl.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
