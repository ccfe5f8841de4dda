package nakama

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"

	"sketchrelay/internal/ports"
)

// NakamaNotifierAdapter implements ports.NotifierPort using Nakama's
// persistent notifications, so turn assignments reach participants who are
// offline for hours or days.
type NakamaNotifierAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaNotifierAdapter creates a new notifier adapter.
func NewNakamaNotifierAdapter(nk runtime.NakamaModule) *NakamaNotifierAdapter {
	return &NakamaNotifierAdapter{nk: nk}
}

// Send delivers one persistent notification to userID.
func (a *NakamaNotifierAdapter) Send(ctx context.Context, userID, subject string, content map[string]interface{}, code int) error {
	return a.nk.NotificationSend(ctx, userID, subject, content, code, "", true)
}

var _ ports.NotifierPort = (*NakamaNotifierAdapter)(nil)
