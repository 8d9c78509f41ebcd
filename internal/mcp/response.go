package mcp

import (
	"time"

	"flowdash/internal/dataset"
)

// Response is the envelope every tool returns: the payload, which dataset
// snapshot produced it, and any data-quality warnings worth showing.
type Response struct {
	Data     any         `json:"data"`
	Dataset  DatasetInfo `json:"dataset"`
	Warnings []string    `json:"warnings,omitempty"`
}

// DatasetInfo describes the snapshot behind a response.
type DatasetInfo struct {
	Tickets    int       `json:"tickets"`
	ModifiedAt time.Time `json:"modified_at"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// WrapResponse builds the response envelope for data computed from snap.
func WrapResponse(data any, snap *dataset.Snapshot, warnings []string) Response {
	res := Response{Data: data, Warnings: warnings}
	if snap != nil {
		res.Dataset = DatasetInfo{
			Tickets:    len(snap.Tickets),
			ModifiedAt: snap.ModTime,
			LoadedAt:   snap.LoadedAt,
		}
	}
	return res
}
