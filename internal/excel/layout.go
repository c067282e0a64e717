// Package excel is the document codec: it turns uploaded invoice and intake
// spreadsheets into typed rows and renders allocation results back into the
// regulator's templated output format.
package excel

// Invoice documents use a fixed positional layout. Coordinates are zero-based
// (row, column), matching the raw sheet with no header row.
const (
	invoiceDateRow, invoiceDateCol             = 2, 26
	invoicePostalCodeRow, invoicePostalCodeCol = 11, 4
	invoiceNationalIDRow, invoiceNationalIDCol = 9, 16
	invoiceBuyerNameRow, invoiceBuyerNameCol   = 9, 0

	// Line items start at this row index and continue until the first row
	// whose unit-price cell is blank, non-numeric or zero.
	invoiceLineStartRow = 15

	invoiceLineQuantityCol    = 4
	invoiceLineUnitPriceCol   = 6
	invoiceLineDiscountCol    = 12
	invoiceLineDescriptionCol = 2
)

// Output columns A..S of the regulator format. G through J stay blank.
const (
	outputColDate          = 1  // A
	outputColInvoiceNumber = 2  // B
	outputColPostalCode    = 3  // C
	outputColNationalID    = 4  // D
	outputColFirstName     = 5  // E
	outputColLastName      = 6  // F
	outputColProductID     = 11 // K
	outputColDescription   = 12 // L
	outputColUnit          = 13 // M
	outputColQuantity      = 14 // N
	outputColCurrency      = 15 // O
	outputColExchangeRate  = 16 // P
	outputColUnitPrice     = 17 // Q
	outputColDiscount      = 18 // R
	outputColTax           = 19 // S
)

const (
	// defaultUnitCode is the regulator unit-of-measurement code written when
	// the matched item carries none.
	defaultUnitCode = "4"

	outputCurrency     = "IRR"
	outputExchangeRate = 1

	// monetaryScale converts stored prices to the regulator's monetary unit.
	// Applied to the unit price and tax columns on write.
	monetaryScale = 10

	// Output rows start below the template header row.
	outputStartRow = 2
)

// Intake upload columns, by header text (first sheet, first row).
const (
	intakeColDocumentNumber   = "شماره سند"
	intakeColInvoiceNumberRef = "شماره صورتحساب"
	intakeColDocumentDate     = "تاریخ سند"
	intakeColSeller           = "فروشنده"
	intakeColSellerProvince   = "استان فروشنده"
	intakeColActivityType     = "نوع فعالیت"
	intakeColOrigin           = "مبدا"
	intakeColItemCategory     = "طبقه کالا"
	intakeColDescription      = "شرح کالا"
	intakeColUnit             = "واحداندازه‌گیری"
	intakeColQuantity         = "تعداد / مقدار کالا"
	intakeColUnitPrice        = "مبلغ واحد"
	intakeColFinalAmount      = "مبلغ نهایی"
	intakeColProductID        = "شناسه کالا"
	intakeColRemarks          = "توضیحات"
)
