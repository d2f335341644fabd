package telegram

import (
	"context"
	"strings"
	"testing"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
	"github.com/ivankudzin/miraclemap/internal/domain/model"
)

func TestCallbackDataRoundTrip(t *testing.T) {
	data := CallbackData(ActionReason, "SPAM", "0b4c")
	if data != "mod:reason:SPAM:0b4c" {
		t.Fatalf("unexpected callback data: %s", data)
	}

	action, args, ok := ParseCallbackData(data)
	if !ok || action != ActionReason || len(args) != 2 || args[0] != "SPAM" || args[1] != "0b4c" {
		t.Fatalf("unexpected parse: %s %v %v", action, args, ok)
	}

	for _, bad := range []string{"", "mod", "mod:approve", "acc:approve:1", "mod:approve:", "mod::1"} {
		if _, _, ok := ParseCallbackData(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestReviewCardIncludesFlaggedTerms(t *testing.T) {
	card := ReviewCard(model.ModeratedSubmission{
		Submission: model.Submission{
			ID:          "s-1",
			Kind:        enums.ContentKindRequest,
			Category:    enums.CategoryHealth,
			Urgency:     enums.UrgencyHigh,
			AuthorID:    "a-1",
			Title:       "Please pray",
			Description: strings.Repeat("x", 700),
		},
		Moderation: model.ModerationState{Confidence: 55, FlaggedTerms: []string{"buy now"}},
	})

	for _, want := range []string{"s-1", "request/health", "Urgency: high", "Confidence: 55", "Flagged: buy now", "Please pray", "..."} {
		if !strings.Contains(card, want) {
			t.Fatalf("card is missing %q:\n%s", want, card)
		}
	}
}

type recordingSender struct {
	chatID int64
	text   string
	rows   [][]InlineButton
}

func (s *recordingSender) SendInline(_ context.Context, chatID int64, text string, rows [][]InlineButton) error {
	s.chatID, s.text, s.rows = chatID, text, rows
	return nil
}

func TestPendingNotifierSendsDecisionButtons(t *testing.T) {
	sender := &recordingSender{}
	notifier := NewPendingNotifier(sender, -100)

	err := notifier.NotifyPending(context.Background(), model.ModeratedSubmission{
		Submission: model.Submission{ID: "s-9", Kind: enums.ContentKindPrimary, Title: "t"},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sender.chatID != -100 || len(sender.rows) != 1 || len(sender.rows[0]) != 2 {
		t.Fatalf("unexpected send: %+v", sender)
	}
	if sender.rows[0][0].Data != "mod:approve:s-9" || sender.rows[0][1].Data != "mod:reject:s-9" {
		t.Fatalf("unexpected buttons: %+v", sender.rows)
	}

	if err := NewPendingNotifier(sender, 0).NotifyPending(context.Background(), model.ModeratedSubmission{}); err == nil {
		t.Fatalf("expected error without chat id")
	}
}
