package track

import (
	"fmt"
	"strings"

	"github.com/ensightlabs/walletfeed/internal/feed/event"
)

// Kind is the semantic bucket a wallet call belongs to.
type Kind string

const (
	KindConnect Kind = "connect"
	KindSign    Kind = "sign"
	KindTx      Kind = "tx"
	KindChain   Kind = "chain"
	KindUnknown Kind = "unknown"
)

// Severity tiers for UI rendering. Danger > Warn > Info.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityWarn   Severity = "warn"
	SeverityDanger Severity = "danger"
)

// Tracked provider methods. Sign-typed-data variants match by prefix
// (eth_signTypedData, eth_signTypedData_v3, eth_signTypedData_v4).
const (
	MethodAccounts        = "eth_accounts"
	MethodRequestAccounts = "eth_requestAccounts"
	MethodSendTransaction = "eth_sendTransaction"
	MethodSign            = "eth_sign"
	MethodPersonalSign    = "personal_sign"
	MethodSwitchChain     = "wallet_switchEthereumChain"
	MethodAddChain        = "wallet_addEthereumChain"

	SignTypedDataPrefix = "eth_signTypedData"
)

// IsTracked reports whether the interception layer would forward this method.
func IsTracked(method string) bool {
	switch method {
	case MethodAccounts, MethodRequestAccounts, MethodSendTransaction,
		MethodSign, MethodPersonalSign, MethodSwitchChain, MethodAddChain:
		return true
	}
	return strings.HasPrefix(method, SignTypedDataPrefix)
}

// Classify maps a method name to its Kind. Pure, total; unrecognized
// methods classify as KindUnknown.
func Classify(method string) Kind {
	switch method {
	case MethodAccounts, MethodRequestAccounts:
		return KindConnect
	case MethodSendTransaction:
		return KindTx
	case MethodSwitchChain, MethodAddChain:
		return KindChain
	case MethodSign, MethodPersonalSign:
		return KindSign
	}
	if strings.HasPrefix(method, SignTypedDataPrefix) {
		return KindSign
	}
	return KindUnknown
}

// SeverityFor: error phase is always danger; tx and sign are warn outside
// error; everything else is info.
func SeverityFor(kind Kind, phase event.Phase) Severity {
	if phase == event.PhaseError {
		return SeverityDanger
	}
	if kind == KindTx || kind == KindSign {
		return SeverityWarn
	}
	return SeverityInfo
}

const maxErrorChars = 60

// OneLiner builds the human-readable summary for a feed entry.
func OneLiner(kind Kind, method string, phase event.Phase, errMsg string) string {
	if phase == event.PhaseError && errMsg != "" {
		if len(errMsg) > maxErrorChars {
			errMsg = errMsg[:maxErrorChars]
		}
		return "Failed: " + errMsg
	}
	before := phase == event.PhaseBefore
	switch kind {
	case KindConnect:
		if before {
			return "Requesting account access"
		}
		return "Account access completed"
	case KindTx:
		if before {
			return "Sending transaction"
		}
		return "Transaction sent"
	case KindSign:
		if before {
			return "Requesting signature"
		}
		return "Signature completed"
	case KindChain:
		if before {
			return "Switching/add chain"
		}
		return "Chain switch completed"
	}
	return fmt.Sprintf("%s %s", method, phase)
}
