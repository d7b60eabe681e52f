package api

import (
	"time"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/domain"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/journal"
)

type RecordResponse struct {
	Key       string  `json:"key"`
	Status    string  `json:"status"`
	Error     *string `json:"error,omitempty"`
	AuxID     *int64  `json:"aux_id,omitempty"`
	StartedAt string  `json:"started_at"`
	UpdatedAt string  `json:"updated_at"`
}

func toRecordResponse(rec domain.Record) RecordResponse {
	return RecordResponse{
		Key:       rec.Key,
		Status:    string(rec.Status),
		Error:     rec.Error,
		AuxID:     rec.AuxID,
		StartedAt: formatTime(rec.StartedAt),
		UpdatedAt: formatTime(rec.UpdatedAt),
	}
}

type SnapshotResponse struct {
	Records map[string]RecordResponse `json:"records"`
}

type CountersResponse struct {
	SuccessfulProvisions uint64 `json:"successful_provisions"`
	SuccessfulDeletions  uint64 `json:"successful_deletions"`
}

type ConnectionResponse struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Error      string `json:"error,omitempty"`
}

type HistoryEntryResponse struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	Key        string  `json:"key"`
	Status     string  `json:"status"`
	Error      *string `json:"error,omitempty"`
	AuxID      *int64  `json:"aux_id,omitempty"`
	ReportedAt string  `json:"reported_at,omitempty"`
	RecordedAt string  `json:"recorded_at"`
}

func toHistoryEntryResponse(e journal.Entry) HistoryEntryResponse {
	resp := HistoryEntryResponse{
		ID:         e.ID.String(),
		Kind:       string(e.Kind),
		Key:        e.Key,
		Status:     string(e.Status),
		Error:      e.Error,
		AuxID:      e.AuxID,
		RecordedAt: formatTime(e.RecordedAt),
	}
	if e.ReportedAt != nil {
		resp.ReportedAt = formatTime(*e.ReportedAt)
	}
	return resp
}

type HistoryResponse struct {
	Events []HistoryEntryResponse `json:"events"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
