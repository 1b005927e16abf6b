package repository

import "testing"

func TestTerminalStatusesAreSticky(t *testing.T) {
	terminal := []CallStatus{
		StatusCalled, StatusNoAnswer, StatusVoicemail,
		StatusFailed, StatusTransferred, StatusScheduled,
	}

	for _, from := range terminal {
		if CanTransition(from, StatusNotCalled) {
			t.Errorf("transition %s -> not_called should be rejected", from)
		}
		if CanTransition(from, StatusInProgress) {
			t.Errorf("transition %s -> in_progress should be rejected", from)
		}
	}
}

func TestTerminalToTerminalIsAllowed(t *testing.T) {
	// A later webhook may refine the outcome, e.g. no_answer -> voicemail.
	if !CanTransition(StatusNoAnswer, StatusVoicemail) {
		t.Error("expected no_answer -> voicemail to be allowed")
	}
	if !CanTransition(StatusCalled, StatusTransferred) {
		t.Error("expected called -> transferred to be allowed")
	}
}

func TestNonTerminalTransitions(t *testing.T) {
	if !CanTransition(StatusNotCalled, StatusInProgress) {
		t.Error("expected not_called -> in_progress to be allowed")
	}
	if !CanTransition(StatusInProgress, StatusFailed) {
		t.Error("expected in_progress -> failed to be allowed")
	}
	if CanTransition(StatusInProgress, CallStatus("bogus")) {
		t.Error("expected transition to an unknown status to be rejected")
	}
}

func TestIsTerminal(t *testing.T) {
	if StatusNotCalled.IsTerminal() || StatusInProgress.IsTerminal() {
		t.Error("not_called and in_progress are not terminal")
	}
	if !StatusFailed.IsTerminal() {
		t.Error("failed is terminal")
	}
}
