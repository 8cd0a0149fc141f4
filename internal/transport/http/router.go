// Package http wires the gin router for the narration API: generation,
// voice catalog, task progress, system status and static artifact serving.
package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"github.com/mengzhisuoliu/easyVoice/internal/platform/config"
	"github.com/mengzhisuoliu/easyVoice/internal/platform/logging"
)

// RouterDeps collect everything the router mounts.
type RouterDeps struct {
	Generator Generator
	Tracker   *ProgressTracker
	Logger    *logging.Logger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg *config.Config, deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	ttsHandler := NewTTSHandler(deps.Generator, deps.Tracker, deps.Logger)
	systemHandler := NewSystemHandler()

	api := engine.Group("/api/v1")
	{
		api.POST("/tts/generate", ttsHandler.Generate)
		api.GET("/tts/voices", ttsHandler.Voices)
		api.GET("/tts/task/:id", ttsHandler.Task)
		api.GET("/system/status", systemHandler.Status)
	}

	// Generated artifacts are served straight from the output directory.
	engine.Static("/audio", cfg.TTS.OutputDir)
	if cfg.Web.Enabled && cfg.Web.StaticDir != "" {
		engine.Use(static.Serve("/", static.LocalFile(cfg.Web.StaticDir, false)))
	}

	return engine
}
