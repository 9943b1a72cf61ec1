package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/saveur1/community-system/config"
	"github.com/saveur1/community-system/draft"
	"github.com/saveur1/community-system/upload"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Drafts  draft.Store
	Uploads *upload.DiskUploader
}
