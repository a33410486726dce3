package middleware

import (
	"context"
	"strings"

	"github.com/aretw0/folio/pkg/domain"
)

// ImageReceivedDialogID is where AttachmentDetection sends images.
const ImageReceivedDialogID = "/image-received"

// AttachmentDetection diverts turns whose first attachment is an image to
// dialogID, skipping intent routing. The dialog receives the domain.Attachment
// as its begin value. An empty dialogID uses ImageReceivedDialogID.
func AttachmentDetection(dialogID, ack string) domain.Middleware {
	if dialogID == "" {
		dialogID = ImageReceivedDialogID
	}
	return func(ctx context.Context, tc domain.TurnContext, next domain.NextFunc) error {
		atts := tc.Turn().Attachments
		if len(atts) == 0 || !strings.Contains(atts[0].ContentType, "image") {
			return next(ctx)
		}
		tc.Send(domain.TypingMessage())
		if ack != "" {
			tc.Send(domain.TextMessage(ack))
		}
		return tc.BeginDialog(ctx, dialogID, atts[0])
	}
}
