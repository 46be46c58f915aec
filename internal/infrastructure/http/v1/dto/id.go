// Package dto provides Data Transfer Objects for API requests/responses.
// IDs and millisecond timestamps are rendered as decimal strings.
package dto

import (
	"strconv"
	"time"

	"snowid/internal/core/snowflake"
)

// IDResponse is returned by a single allocation.
type IDResponse struct {
	ID snowflake.ID `json:"id"`
}

// IDListResponse is returned by a batch allocation.
type IDListResponse struct {
	IDs   []snowflake.ID `json:"ids"`
	Count int            `json:"count"`
}

// TimestampResponse is the decoded timestamp of an ID.
type TimestampResponse struct {
	ID        string    `json:"id"`
	Timestamp string    `json:"timestamp"`
	Time      time.Time `json:"time"`
}

// NewTimestampResponse builds a TimestampResponse from Unix milliseconds.
func NewTimestampResponse(id string, ms int64) TimestampResponse {
	return TimestampResponse{
		ID:        id,
		Timestamp: strconv.FormatInt(ms, 10),
		Time:      time.UnixMilli(ms).UTC(),
	}
}

// PartsResponse is the decomposed form of an ID.
type PartsResponse struct {
	TimestampResponse
	NodeID   uint8  `json:"nodeId"`
	Sequence uint16 `json:"sequence"`
}

// NewPartsResponse builds a PartsResponse.
func NewPartsResponse(id string, parts snowflake.Parts) PartsResponse {
	return PartsResponse{
		TimestampResponse: NewTimestampResponse(id, parts.Timestamp),
		NodeID:            parts.NodeID,
		Sequence:          parts.Sequence,
	}
}
