package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"dojoadmin_go/database"
	"dojoadmin_go/models"
)

type AccountingController struct{}

type accountingSummary struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TaxableIncome decimal.Decimal `json:"taxable_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Net           decimal.Decimal `json:"net"`
	PaymentCount  int             `json:"payment_count"`
	ExpenseCount  int             `json:"expense_count"`
}

// buildSummary totals the ledgers for a date range. Empty bounds are
// left open, so a query without from/to covers everything on record.
func buildSummary(from, to string) (accountingSummary, []models.Payment, []models.Expense, error) {
	summary := accountingSummary{From: from, To: to}

	paymentQuery := database.DB.Preload("Student").Model(&models.Payment{})
	expenseQuery := database.DB.Model(&models.Expense{})
	if from != "" {
		paymentQuery = paymentQuery.Where("date >= ?", from)
		expenseQuery = expenseQuery.Where("date >= ?", from)
	}
	if to != "" {
		paymentQuery = paymentQuery.Where("date <= ?", to)
		expenseQuery = expenseQuery.Where("date <= ?", to)
	}

	var payments []models.Payment
	if err := paymentQuery.Order("date ASC, id ASC").Find(&payments).Error; err != nil {
		return summary, nil, nil, err
	}

	var expenses []models.Expense
	if err := expenseQuery.Order("date ASC, id ASC").Find(&expenses).Error; err != nil {
		return summary, nil, nil, err
	}

	// Sums run over decimals so fractional amounts never drift.
	for _, p := range payments {
		summary.TotalIncome = summary.TotalIncome.Add(p.Amount)
		if p.Taxable {
			summary.TaxableIncome = summary.TaxableIncome.Add(p.Amount)
		}
	}
	for _, e := range expenses {
		summary.TotalExpenses = summary.TotalExpenses.Add(e.Amount)
	}
	summary.Net = summary.TotalIncome.Sub(summary.TotalExpenses)
	summary.PaymentCount = len(payments)
	summary.ExpenseCount = len(expenses)

	return summary, payments, expenses, nil
}

// GetSummary reports income, taxable income, expenses and net for an
// optional date range. With no range given it covers all time.
func (ac *AccountingController) GetSummary(c *fiber.Ctx) error {
	from, to := c.Query("from"), c.Query("to")

	summary, _, _, err := buildSummary(from, to)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"summary": summary})
}

// ExportXLSX streams the range's payments and expenses as a workbook
// with one sheet per ledger plus a summary sheet.
func (ac *AccountingController) ExportXLSX(c *fiber.Ctx) error {
	from, to := c.Query("from"), c.Query("to")

	summary, payments, expenses, err := buildSummary(from, to)
	if err != nil {
		return respondError(c, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Payments"
	f.SetSheetName("Sheet1", sheet)
	headers := []string{"Date", "Student", "Amount", "Taxable", "Receipt No", "Note"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for row, p := range payments {
		student := ""
		if p.Student != nil {
			student = p.Student.FullName()
		}
		values := []interface{}{p.Date, student, p.Amount.InexactFloat64(), p.Taxable, p.ReceiptNo, p.Note}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	expSheet := "Expenses"
	f.NewSheet(expSheet)
	expHeaders := []string{"Date", "Vendor", "Category", "Amount", "Note"}
	for i, h := range expHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(expSheet, cell, h)
	}
	for row, e := range expenses {
		values := []interface{}{e.Date, e.Vendor, e.Category, e.Amount.InexactFloat64(), e.Note}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(expSheet, cell, v)
		}
	}

	sumSheet := "Summary"
	f.NewSheet(sumSheet)
	rows := [][]interface{}{
		{"From", summary.From},
		{"To", summary.To},
		{"Total income", summary.TotalIncome.InexactFloat64()},
		{"Taxable income", summary.TaxableIncome.InexactFloat64()},
		{"Total expenses", summary.TotalExpenses.InexactFloat64()},
		{"Net", summary.Net.InexactFloat64()},
	}
	for i, row := range rows {
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+1)
			f.SetCellValue(sumSheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return respondError(c, err)
	}

	filename := "accounting.xlsx"
	if from != "" || to != "" {
		filename = fmt.Sprintf("accounting_%s_%s.xlsx", from, to)
	}
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}
