package chains

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies wallet and transfer failures
type ErrorKind string

const (
	KindProviderNotInstalled ErrorKind = "provider_not_installed"
	KindNoAccountsFound      ErrorKind = "no_accounts_found"
	KindUserRejected         ErrorKind = "user_rejected"
	KindInsufficientFunds    ErrorKind = "insufficient_funds"
	KindProviderUnavailable  ErrorKind = "provider_unavailable"
	KindNetworkError         ErrorKind = "network_error"
	KindInvalidAmount        ErrorKind = "invalid_amount"
)

// EIP-1193 provider error codes
const (
	CodeUserRejectedRequest = 4001
	CodeUnauthorized        = 4100
	CodeUnsupportedMethod   = 4200
	CodeDisconnected        = 4900
	CodeChainDisconnected   = 4901
)

var defaultMessages = map[ErrorKind]string{
	KindProviderNotInstalled: "wallet extension is not installed",
	KindNoAccountsFound:      "no accounts found, unlock your wallet and try again",
	KindUserRejected:         "request was rejected in the wallet",
	KindInsufficientFunds:    "insufficient funds for this donation",
	KindProviderUnavailable:  "wallet is unavailable, reconnect and try again",
	KindNetworkError:         "network error while sending the transaction",
	KindInvalidAmount:        "invalid amount",
}

// WalletError is the single typed failure surfaced by signing adapters
type WalletError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Sentinels for errors.Is; matching compares Kind only
var (
	ErrProviderNotInstalled = &WalletError{Kind: KindProviderNotInstalled}
	ErrNoAccountsFound      = &WalletError{Kind: KindNoAccountsFound}
	ErrUserRejected         = &WalletError{Kind: KindUserRejected}
	ErrInsufficientFunds    = &WalletError{Kind: KindInsufficientFunds}
	ErrProviderUnavailable  = &WalletError{Kind: KindProviderUnavailable}
	ErrNetworkError         = &WalletError{Kind: KindNetworkError}
	ErrInvalidAmount        = &WalletError{Kind: KindInvalidAmount}
)

// NewWalletError creates a WalletError, falling back to the kind's default message
func NewWalletError(kind ErrorKind, message string, err error) *WalletError {
	return &WalletError{Kind: kind, Message: message, Err: err}
}

func (e *WalletError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = defaultMessages[e.Kind]
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *WalletError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a WalletError of the same kind
func (e *WalletError) Is(target error) bool {
	t, ok := target.(*WalletError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// UserMessage returns a short message suitable for the payer
func (e *WalletError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return defaultMessages[e.Kind]
}

// KindOf returns the kind of a WalletError anywhere in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var we *WalletError
	if errors.As(err, &we) {
		return we.Kind, true
	}
	return "", false
}

// ClassifyCode maps an EIP-1193 provider error code to an error kind
func ClassifyCode(code int) (ErrorKind, bool) {
	switch code {
	case CodeUserRejectedRequest:
		return KindUserRejected, true
	case CodeUnauthorized, CodeDisconnected, CodeChainDisconnected:
		return KindProviderUnavailable, true
	default:
		return "", false
	}
}

var insufficientFundsMarkers = []string{
	"insufficient funds",
	"insufficient lamports",
	"no record of a prior credit",
}

var rejectionMarkers = []string{
	"user rejected",
	"user denied",
	"rejected the request",
}

// ClassifyMessage maps provider and node error text to an error kind, defaulting to KindNetworkError
func ClassifyMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)
	for _, m := range insufficientFundsMarkers {
		if strings.Contains(lower, m) {
			return KindInsufficientFunds
		}
	}
	for _, m := range rejectionMarkers {
		if strings.Contains(lower, m) {
			return KindUserRejected
		}
	}
	return KindNetworkError
}

// codedError is implemented by JSON-RPC errors that carry a numeric code (go-ethereum rpc.Error)
type codedError interface {
	ErrorCode() int
}

// Classify turns any provider error into a WalletError. Existing WalletErrors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var we *WalletError
	if errors.As(err, &we) {
		return err
	}
	var ce codedError
	if errors.As(err, &ce) {
		if kind, ok := ClassifyCode(ce.ErrorCode()); ok {
			return NewWalletError(kind, "", err)
		}
	}
	return NewWalletError(ClassifyMessage(err.Error()), "", err)
}

// ClassifyWithCode is Classify for errors whose code is not exposed through ErrorCode
func ClassifyWithCode(err error, code int) error {
	if err == nil {
		return nil
	}
	if kind, ok := ClassifyCode(code); ok {
		var we *WalletError
		if errors.As(err, &we) {
			return err
		}
		return NewWalletError(kind, "", err)
	}
	return Classify(err)
}
