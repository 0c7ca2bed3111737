package providers

import (
	"encoding/hex"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/fitchallenge/fitchallenge-server/internal/auth"
	"github.com/fitchallenge/fitchallenge-server/internal/config"
	"github.com/fitchallenge/fitchallenge-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key := cfg.Auth.AccessTokenKey
	if len(key) == 0 {
		keyHex, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
		if err != nil {
			return nil, err
		}
		key, err = hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("decode auth key: %w", err)
		}
		cfg.Auth.AccessTokenKey = key
	}

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"refresh_token_duration", cfg.Auth.RefreshTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	keyHex := hex.EncodeToString([]byte(authKey))
	return auth.NewTokenService(keyHex, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
}
