package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped only on breaking changes to the wire format.
const envelopeVersion = 1

// Envelope is the wire format for every JSON response. Clients key off
// "success" and the "v" field; the field name "v" is part of the contract.
type Envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in the Envelope
// structure. Registered on the huma config at server construction.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, err := strconv.Atoi(status)
	if err != nil {
		code = 200
	}

	if apiErr, ok := v.(*APIError); ok {
		env := Envelope{
			V:       envelopeVersion,
			Success: false,
			Error:   apiErr.Message,
			Message: apiErr.Message,
			Code:    apiErr.Code,
			Details: apiErr.Details,
		}
		return env, nil
	}

	return Envelope{
		V:       envelopeVersion,
		Success: code < 400,
		Data:    v,
	}, nil
}
