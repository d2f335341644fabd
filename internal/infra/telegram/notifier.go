package telegram

import (
	"context"
	"fmt"

	"github.com/ivankudzin/miraclemap/internal/domain/model"
)

type inlineSender interface {
	SendInline(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
}

// PendingNotifier posts new pending submissions into the moderators chat.
type PendingNotifier struct {
	sender inlineSender
	chatID int64
}

func NewPendingNotifier(sender inlineSender, chatID int64) *PendingNotifier {
	return &PendingNotifier{sender: sender, chatID: chatID}
}

func (n *PendingNotifier) NotifyPending(ctx context.Context, item model.ModeratedSubmission) error {
	if n.sender == nil || n.chatID == 0 {
		return fmt.Errorf("pending notifier is not configured")
	}
	return n.sender.SendInline(ctx, n.chatID, ReviewCard(item), DecisionRows(item.Submission.ID))
}
