package messenger

import (
	"encoding/json"
	"strings"

	"github.com/AlexZinkM/wallet-guard/internal/model"
)

// Context labels.
const (
	Background = "background"
	Approval   = "approval"

	pagePrefix = "page-"
)

// IsPage reports whether label names an untrusted page context.
func IsPage(label string) bool {
	return strings.HasPrefix(label, pagePrefix)
}

// Kind tells calls, replies and broadcasts apart.
type Kind string

const (
	KindCall      Kind = "call"
	KindReply     Kind = "reply"
	KindBroadcast Kind = "broadcast"
)

// Method is a remotely callable command.
type Method string

// Methods served by the background context.
const (
	MainRun              Method = "main_run"
	MainRunLocal         Method = "main_runLocal"
	MainCreateRunMessage Method = "main_createRunMessage"
	MainGetPublicKeys    Method = "main_getPublicKeys"
	MainIsKeyInKeyring   Method = "main_isKeyInKeyring"
	MainGetNetwork       Method = "main_getNetwork"
	MainGetNetworks      Method = "main_getNetworks"
	MainTest             Method = "main_test"
	MainFall             Method = "main_fall"
)

// Methods served by the approval context.
const (
	PopupAcceptSignMessage Method = "popup_acceptSignMessage"
	PopupPassword          Method = "popup_password"
	PopupClose             Method = "popup_close"
	PopupTest              Method = "popup_test"
	PopupFall              Method = "popup_fall"
)

// Message is the single wire unit exchanged between contexts.
type Message struct {
	Kind      Kind                 `json:"kind"`
	ID        string               `json:"requestId,omitempty"`
	From      string               `json:"from,omitempty"`
	Target    string               `json:"target,omitempty"`
	Method    Method               `json:"method,omitempty"`
	Params    json.RawMessage      `json:"params,omitempty"`
	Result    json.RawMessage      `json:"result,omitempty"`
	Exception *model.ErrorResponse `json:"exception,omitempty"`
	Event     *model.Event         `json:"broadcast,omitempty"`
}
