package portfolio

import (
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/middleware"
)

// ImageAck acknowledges an uploaded image before the image dialog runs.
const ImageAck = "I received your image. Let's have a look!"

// Middleware is the turn pipeline of the portfolio bot, in order: input
// sanitation, a typing indicator, the dialog version check and image detection.
func Middleware(version string, maxInputSize int) []domain.Middleware {
	return []domain.Middleware{
		middleware.Sanitize(maxInputSize),
		middleware.SendTyping(),
		middleware.DialogVersion(version),
		middleware.AttachmentDetection(ImageReceivedID, ImageAck),
	}
}
