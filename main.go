package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/saveur1/community-system/app"
	"github.com/saveur1/community-system/config"
	"github.com/saveur1/community-system/database"
	"github.com/saveur1/community-system/draft"
	"github.com/saveur1/community-system/httpx"
	"github.com/saveur1/community-system/log"
	"github.com/saveur1/community-system/routes"
	"github.com/saveur1/community-system/upload"
)

func main() {
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if cfg.LogFile != "" {
		defer log.ToFile(cfg.LogFile, 50).Close()
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	if cfg.AdminUser != "" && cfg.AdminPassword != "" {
		err = httpx.PutUser(context.Background(), db, cfg.AdminUser, cfg.AdminPassword, "admin")
		if err != nil {
			log.Fatal("main.admin_user:", err)
		}
		log.Infof("admin user %q ready", cfg.AdminUser)
	}

	uploads, err := upload.NewDiskUploader(cfg.UploadDir, cfg.Url()+"/files", cfg.TokenSecret)
	if err != nil {
		log.Fatal("main.uploads:", err)
	}

	app := app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Drafts:       draft.NewSQLStore(db),
		Uploads:      uploads,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  time.Minute,
		WriteTimeout: 2 * time.Minute,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
