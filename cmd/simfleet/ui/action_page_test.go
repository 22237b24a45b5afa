package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"simfleet/internal/types"
)

func TestActionPageSubmit(t *testing.T) {
	page := NewActionPage(DefaultStyles(), 42)

	// Pick the second kind and type a reason.
	page, _ = page.Update(tea.KeyMsg{Type: tea.KeyDown})
	page, _ = page.Update(tea.KeyMsg{Type: tea.KeyTab})
	page, _ = page.Update(keyRunes("customer request"))
	page, cmd := page.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd == nil {
		t.Fatal("expected a submit command")
	}
	msg, ok := cmd().(ActionSubmitMsg)
	if !ok {
		t.Fatalf("expected ActionSubmitMsg, got %T", cmd())
	}
	if msg.Kind != types.ActionActivate {
		t.Errorf("expected activate, got %q", msg.Kind)
	}
	if len(msg.SimIDs) != 1 || msg.SimIDs[0] != 42 {
		t.Errorf("unexpected sim ids: %v", msg.SimIDs)
	}
	if msg.Reason != "customer request" {
		t.Errorf("unexpected reason: %q", msg.Reason)
	}
}

func TestActionPageRequiresReason(t *testing.T) {
	page := NewActionPage(DefaultStyles(), 42)

	page, cmd := page.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		if _, ok := cmd().(ActionSubmitMsg); ok {
			t.Fatal("expected no submit without a reason")
		}
	}
	if page.errMsg == "" {
		t.Error("expected a validation message")
	}
	if !page.reasonFocus {
		t.Error("expected focus moved to the reason field")
	}
}

func TestActionPageEscCloses(t *testing.T) {
	page := NewActionPage(DefaultStyles(), 42)

	_, cmd := page.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected a command from esc")
	}
	if _, ok := cmd().(CloseActionMsg); !ok {
		t.Fatalf("expected CloseActionMsg, got %T", cmd())
	}
}

func TestActionPageMarksTerminateIrreversible(t *testing.T) {
	page := NewActionPage(DefaultStyles(), 7)
	if !strings.Contains(page.View(), "irreversible") {
		t.Error("expected terminate to be flagged irreversible")
	}
}
