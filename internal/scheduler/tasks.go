package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskArchiveInvoicePDF = "invoices.archive_pdf"

type ArchiveInvoicePDFPayload struct {
	InvoiceID string `json:"invoiceId"`
	Code      string `json:"code"`
}

func NewArchiveInvoicePDFTask(payload ArchiveInvoicePDFPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskArchiveInvoicePDF, data), nil
}

func ParseArchiveInvoicePDFPayload(task *asynq.Task) (ArchiveInvoicePDFPayload, error) {
	var payload ArchiveInvoicePDFPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ArchiveInvoicePDFPayload{}, err
	}
	return payload, nil
}
