package nakama

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"

	"sketchrelay/internal/app"
	"sketchrelay/internal/config"
)

// inviteServiceFromEnv builds the invite token service from the Nakama
// runtime environment. Missing credentials fall back to test defaults so
// local setups work out of the box; production must set both variables.
func inviteServiceFromEnv(ctx context.Context, logger runtime.Logger) *app.InviteService {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	secret := env[envInviteSecret]
	issuer := env[envInviteIssuer]
	if secret == "" || issuer == "" {
		secret = "test-secret"
		issuer = "test-issuer"
		logger.Warn("Invite credentials missing from runtime env, using test defaults.")
	}
	return app.NewInviteService(secret, issuer, config.InviteTTL())
}
