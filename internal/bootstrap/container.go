package bootstrap

import (
	"blog-ask-client/internal/api/implementation"
	"blog-ask-client/internal/config"
	"blog-ask-client/internal/pkg/logger"
	"blog-ask-client/internal/service"
	"blog-ask-client/internal/transport"
	"blog-ask-client/pkg/ask"
	"blog-ask-client/pkg/store"
)

// Container wires the SDK object graph: transport, API collaborators,
// the session store, and the chat service. The store is constructed here
// and injected everywhere; nothing in the SDK reaches for a global.
type Container struct {
	Logger      logger.ILogger
	Store       *store.Store
	ChatService service.IChatService
	Version     ask.Version
}

func NewContainer(cfg *config.Config, auth transport.AuthProvider) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	client := transport.New(cfg.API.BaseURL, auth, sysLogger)

	sessionAPI := implementation.NewSessionAPI(client, cfg.API.SessionCacheTTL)
	askAPI := implementation.NewAskAPI(client, cfg.API.StreamIdleTimeout)

	version := ask.V2
	if cfg.API.AskVersion == 1 {
		version = ask.V1
	}

	st := store.New(sessionAPI, sysLogger)
	chatService := service.NewChatService(askAPI, sessionAPI, st, sysLogger, version)

	return &Container{
		Logger:      sysLogger,
		Store:       st,
		ChatService: chatService,
		Version:     version,
	}
}
