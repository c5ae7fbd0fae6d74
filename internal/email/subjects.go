package email

const (
	subjectInvoiceDecisionFmt = "Orçamento %s: %s"
)
