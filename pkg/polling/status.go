// Package polling drives long-running operations to completion. The
// poll family is fixed by the initiating verb at registration: PUT and
// PATCH poll the original resource URL until its provisioning state is
// terminal, POST and DELETE poll the operation-status URL advertised by
// the initiating response. Polling stops only on a terminal status or
// cancellation; poll count and elapsed time are observable but never
// bound the loop.
package polling

import "encoding/json"

// Status is the lifecycle state of an in-flight long-running operation.
type Status string

const (
	StatusInProgress Status = "InProgress"
	StatusSucceeded  Status = "Succeeded"
	StatusFailed     Status = "Failed"
	StatusCanceled   Status = "Canceled"
)

// Terminal reports whether s ends the polling loop.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// statusEnvelope captures the fields a status payload may carry its
// state in. Services report either a top-level status, a top-level
// provisioning state, or one nested under properties.
type statusEnvelope struct {
	Status            string `json:"status"`
	ProvisioningState string `json:"provisioningState"`
	Properties        struct {
		ProvisioningState string `json:"provisioningState"`
	} `json:"properties"`
}

// ParseStatus extracts the operation status from a payload. Returns ""
// when the payload carries no state at all; what that means is up to the
// poll family. Unrecognized non-empty states count as in progress, so an
// unknown intermediate state keeps the loop alive instead of failing it.
func ParseStatus(body json.RawMessage) Status {
	if len(body) == 0 {
		return ""
	}

	var envelope statusEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}

	raw := envelope.Status
	if raw == "" {
		raw = envelope.ProvisioningState
	}
	if raw == "" {
		raw = envelope.Properties.ProvisioningState
	}

	switch raw {
	case "":
		return ""
	case "Succeeded":
		return StatusSucceeded
	case "Failed":
		return StatusFailed
	case "Canceled", "Cancelled":
		return StatusCanceled
	default:
		return StatusInProgress
	}
}
