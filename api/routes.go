package api

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sautihealth/sauti/scheduler"
	"github.com/sautihealth/sauti/webhooks"
	"github.com/sautihealth/sauti/webutil"
)

const (
	webhooksBasePath  = "/webhooks"
	twilioSubPath     = "/twilio"
	schedulerBasePath = "/scheduler"
	tickSubPath       = "/tick"
	audioBasePath     = "/temp_audio"

	paramAudioFile = "file"

	contentTypeMPEGAudio = "audio/mpeg"
)

func SetupRoutes(
	inboundHandler *webhooks.InboundMessageHandler,
	sched *scheduler.Scheduler,
	appName string,
	audioDir string,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route(webhooksBasePath, func(r chi.Router) {
		r.Post(twilioSubPath, inboundHandler.HandleInbound)
	})

	r.Route(schedulerBasePath, func(r chi.Router) {
		r.Post(tickSubPath, sched.HandleTick)
	})

	// Outbound media messages reference synthesized clips by URL; the
	// channel provider fetches them from here.
	r.Get(audioBasePath+"/{"+paramAudioFile+"}", webutil.MakeHandler(serveAudio(audioDir)))

	// Health check endpoint
	r.Get("/", handleHealthCheck(appName))

	return r
}

// serveAudio serves a synthesized clip by file name. The name is reduced
// to its base to keep requests inside the audio directory.
func serveAudio(audioDir string) webutil.AppHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		name := filepath.Base(chi.URLParam(r, paramAudioFile))
		if name == "." || name == string(filepath.Separator) {
			return webutil.ErrBadRequest("invalid audio file name")
		}

		path := filepath.Join(audioDir, name)
		if _, err := os.Stat(path); err != nil {
			return webutil.ErrNotFoundWrap("audio file not found", err)
		}

		log.Printf("INFO (API): Serving audio artifact %s", name)
		w.Header().Set(webutil.HeaderContentType, contentTypeMPEGAudio)
		http.ServeFile(w, r, path)
		return nil
	}
}

// handleHealthCheck responds to a health check request.
func handleHealthCheck(appName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "%s is running", appName)
	}
}
