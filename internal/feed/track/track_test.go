package track

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ensightlabs/walletfeed/internal/feed/event"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		method string
		want   Kind
	}{
		{MethodAccounts, KindConnect},
		{MethodRequestAccounts, KindConnect},
		{MethodSendTransaction, KindTx},
		{MethodSign, KindSign},
		{MethodPersonalSign, KindSign},
		{"eth_signTypedData", KindSign},
		{"eth_signTypedData_v3", KindSign},
		{"eth_signTypedData_v4", KindSign},
		{MethodSwitchChain, KindChain},
		{MethodAddChain, KindChain},
		{"eth_call", KindUnknown},
		{"", KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.method))
		})
	}
}

func TestIsTracked(t *testing.T) {
	assert.True(t, IsTracked(MethodSendTransaction))
	assert.True(t, IsTracked("eth_signTypedData_v4"))
	assert.False(t, IsTracked("eth_call"))
	assert.False(t, IsTracked("eth_getBalance"))
}

func TestSeverityFor(t *testing.T) {
	// Error phase wins over kind.
	assert.Equal(t, SeverityDanger, SeverityFor(KindConnect, event.PhaseError))
	assert.Equal(t, SeverityDanger, SeverityFor(KindTx, event.PhaseError))

	assert.Equal(t, SeverityWarn, SeverityFor(KindTx, event.PhaseBefore))
	assert.Equal(t, SeverityWarn, SeverityFor(KindSign, event.PhaseAfter))

	assert.Equal(t, SeverityInfo, SeverityFor(KindConnect, event.PhaseBefore))
	assert.Equal(t, SeverityInfo, SeverityFor(KindChain, event.PhaseAfter))
	assert.Equal(t, SeverityInfo, SeverityFor(KindUnknown, event.PhaseAfter))
}

func TestOneLiner(t *testing.T) {
	cases := []struct {
		name  string
		kind  Kind
		phase event.Phase
		want  string
	}{
		{"connect before", KindConnect, event.PhaseBefore, "Requesting account access"},
		{"connect after", KindConnect, event.PhaseAfter, "Account access completed"},
		{"tx before", KindTx, event.PhaseBefore, "Sending transaction"},
		{"tx after", KindTx, event.PhaseAfter, "Transaction sent"},
		{"sign before", KindSign, event.PhaseBefore, "Requesting signature"},
		{"sign after", KindSign, event.PhaseAfter, "Signature completed"},
		{"chain before", KindChain, event.PhaseBefore, "Switching/add chain"},
		{"chain after", KindChain, event.PhaseAfter, "Chain switch completed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, OneLiner(tc.kind, "x", tc.phase, ""))
		})
	}
}

func TestOneLinerError(t *testing.T) {
	line := OneLiner(KindTx, MethodSendTransaction, event.PhaseError, "User rejected the request.")
	assert.Equal(t, "Failed: User rejected the request.", line)

	long := strings.Repeat("x", 200)
	line = OneLiner(KindSign, MethodSign, event.PhaseError, long)
	assert.Equal(t, "Failed: "+strings.Repeat("x", 60), line)

	// Error phase with no message falls through to the phrase table.
	line = OneLiner(KindTx, MethodSendTransaction, event.PhaseError, "")
	assert.Equal(t, "Transaction sent", line)
}

func TestOneLinerUnknownFallback(t *testing.T) {
	line := OneLiner(KindUnknown, "eth_call", event.PhaseBefore, "")
	assert.Equal(t, "eth_call before", line)
}
