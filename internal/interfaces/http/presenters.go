package http

import (
	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/application/dto"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/apidian"
)

func dispatchResponse(r billing.DispatchResult) dto.DispatchResponse {
	out := dto.DispatchResponse{
		ID:        r.DocumentID,
		Number:    r.Number,
		Status:    string(r.Status),
		FiscalKey: r.FiscalKey,
		Message:   r.Message,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func batchResponse(b *billing.BatchResult) *dto.BatchResponse {
	if b == nil {
		return nil
	}
	out := &dto.BatchResponse{BatchID: b.BatchID, Sent: b.Sent, Failed: b.Failed, Results: make([]dto.DispatchResponse, 0, len(b.Results))}
	for _, r := range b.Results {
		out.Results = append(out.Results, dispatchResponse(r))
	}
	return out
}

func ingestResponse(r billing.IngestResult) dto.IngestFileResponse {
	out := dto.IngestFileResponse{Filename: r.Filename, Outcome: string(r.Outcome), DocumentID: r.DocumentID}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func scanResponse(r *billing.ScanReport) dto.ScanResponse {
	out := dto.ScanResponse{
		BatchID:  r.BatchID,
		Created:  r.Created,
		Skipped:  r.Skipped,
		Failed:   r.Failed,
		Files:    make([]dto.IngestFileResponse, 0, len(r.Files)),
		Dispatch: batchResponse(r.Dispatch),
	}
	for _, f := range r.Files {
		out.Files = append(out.Files, ingestResponse(f))
	}
	return out
}

func callResponse(r *apidian.CallResult) dto.CallResponse {
	return dto.CallResponse{Success: r.Success, Message: r.Message, Body: r.Body}
}

func manualLines(in []dto.ManualLineRequest) []billing.ManualLineInput {
	out := make([]billing.ManualLineInput, 0, len(in))
	for _, l := range in {
		out = append(out, billing.ManualLineInput{
			ProductID:        l.ProductID,
			Code:             l.Code,
			Description:      l.Description,
			Unit:             l.Unit,
			Quantity:         l.Quantity,
			UnitPrice:        l.UnitPrice,
			TaxID:            l.TaxID,
			TaxPercent:       l.TaxPercent,
			PriceIncludesTax: l.PriceIncludesTax,
		})
	}
	return out
}

func noteLines(in []dto.NoteLineRequest) []billing.NoteLineInput {
	out := make([]billing.NoteLineInput, 0, len(in))
	for _, l := range in {
		out = append(out, billing.NoteLineInput{Code: l.Code, Quantity: l.Quantity})
	}
	return out
}
