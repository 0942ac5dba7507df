package conversation

import (
	"errors"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

// User-facing messages for failed sends.
const (
	MsgTimeout      = "Request timeout. Please try again."
	MsgNetwork      = "Network error. Please check your connection and ensure the backend server is running."
	MsgServer       = "Failed to send message. Please try again."
	MsgSendFallback = "Failed to send message"
)

// UserFacingError turns a reply failure into the text shown under the chat.
func UserFacingError(err error) string {
	var te *domain.TransportError
	if errors.As(err, &te) {
		switch te.Kind {
		case domain.TransportTimeout:
			return MsgTimeout
		case domain.TransportNetwork:
			return MsgNetwork
		default:
			if te.Message != "" {
				return te.Message
			}
			return MsgServer
		}
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return MsgSendFallback
}
