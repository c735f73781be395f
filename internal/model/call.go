package model

import "encoding/json"

// OperationType names the intercepted client operation.
type OperationType string

const (
	OperationRun              OperationType = "run"
	OperationRunLocal         OperationType = "runLocal"
	OperationCreateRunMessage OperationType = "createRunMessage"
)

// CallParams are the parameters of an operation on the underlying client.
type CallParams struct {
	KeyPair      *KeyPair        `json:"keyPair,omitempty"`
	Address      string          `json:"address,omitempty"`      // recipient or program address
	FunctionName string          `json:"functionName,omitempty"` // e.g. "transfer", "transferToken", "memo"
	Input        json.RawMessage `json:"input,omitempty"`
	Message      string          `json:"message,omitempty"` // free text shown to the user on approval
}

// WithKeyPair returns a copy of p carrying kp.
func (p CallParams) WithKeyPair(kp KeyPair) CallParams {
	p.KeyPair = &kp
	return p
}

// CallResult is returned by every client operation.
type CallResult struct {
	TxID          string   `json:"txId,omitempty"`
	Status        string   `json:"status,omitempty"`
	Message       string   `json:"message,omitempty"` // base64 wire transaction
	Logs          []string `json:"logs,omitempty"`
	UnitsConsumed uint64   `json:"unitsConsumed,omitempty"`
}

// CallingDetails is the part of a call shown to the user when asking for consent.
type CallingDetails struct {
	Address      string          `json:"address,omitempty"`
	FunctionName string          `json:"functionName,omitempty"`
	Input        json.RawMessage `json:"input,omitempty"`
}

// ApprovalRequest describes one intercepted call waiting for consent.
type ApprovalRequest struct {
	Identity       string         `json:"identity"`
	OperationType  OperationType  `json:"operationType"`
	CallingDetails CallingDetails `json:"callingDetails"`
	UserMessage    string         `json:"userMessage,omitempty"`
}

// NewApprovalRequest builds the approval request for an intercepted call.
func NewApprovalRequest(op OperationType, params CallParams) ApprovalRequest {
	req := ApprovalRequest{
		OperationType: op,
		CallingDetails: CallingDetails{
			Address:      params.Address,
			FunctionName: params.FunctionName,
			Input:        params.Input,
		},
		UserMessage: params.Message,
	}
	if params.KeyPair != nil {
		req.Identity = params.KeyPair.Public
	}
	return req
}
