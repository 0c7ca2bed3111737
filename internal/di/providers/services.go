package providers

import (
	"github.com/samber/do/v2"

	"github.com/fitchallenge/fitchallenge-server/internal/auth"
	"github.com/fitchallenge/fitchallenge-server/internal/config"
	"github.com/fitchallenge/fitchallenge-server/internal/logger"
	"github.com/fitchallenge/fitchallenge-server/internal/service"
	"github.com/fitchallenge/fitchallenge-server/internal/sse"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	kvHandle := do.MustInvoke[*KVHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	authEvents := do.MustInvoke[*sse.AuthBroadcaster](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(
		storeHandle.Store,
		kvHandle.Store,
		tokenService,
		sessionService,
		authEvents,
		service.NewLogMailer(log.Logger),
		service.AuthOptions{
			ResetTokenTTL: cfg.Auth.ResetTokenTTL,
			ResetURL:      cfg.Auth.ResetURL,
		},
		log.Logger,
	), nil
}

// ProvideProfileService provides the profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	authEvents := do.MustInvoke[*sse.AuthBroadcaster](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(storeHandle.Store, authEvents, log.Logger), nil
}

// ProvideChallengeService provides the challenge service.
func ProvideChallengeService(i do.Injector) (*service.ChallengeService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	media := do.MustInvoke[*service.MediaService](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewChallengeService(storeHandle.Store, indexHandle.SearchIndex, sseHandle.Manager, log.Logger)
	svc.SetMediaRemover(media)
	return svc, nil
}

// ProvidePostService provides the post and upvote service.
func ProvidePostService(i do.Injector) (*service.PostService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	media := do.MustInvoke[*service.MediaService](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewPostService(storeHandle.Store, sseHandle.Manager, log.Logger)
	svc.SetMediaRemover(media)
	return svc, nil
}

// ProvideLeaderboardService provides the leaderboard service.
func ProvideLeaderboardService(i do.Injector) (*service.LeaderboardService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLeaderboardService(storeHandle.Store, log.Logger), nil
}

// ProvideMediaService provides the media upload service.
func ProvideMediaService(i do.Injector) (*service.MediaService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storage := do.MustInvoke[*MediaStorage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMediaService(storage.Storage, service.MediaOptions{
		Bucket:        cfg.Media.Bucket,
		MaxUploadSize: cfg.Media.MaxUploadSize,
	}, log.Logger), nil
}
