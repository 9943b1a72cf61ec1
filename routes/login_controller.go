package routes

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/saveur1/community-system/app"
	"github.com/saveur1/community-system/httpx"
	"github.com/saveur1/community-system/log"
)

var reRefreshAuth = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token pair. Credentials come from
// basic auth, or from a JSON body when no basic auth header is sent.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			body := loginRequest{}
			if err := render.DecodeJSON(r.Body, &body); err != nil || body.Username == "" {
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.credentials")
				return
			}
			user, pass = body.Username, body.Password
		}

		status := grantToken(app, w, url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		})
		log.WithFields(log.Fields{"user": user, "status": status}).Debug("login")
	}
}

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefreshAuth.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		grantToken(app, w, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		})
	}
}

// grantToken runs a form-encoded grant through the bearer server and copies
// its answer to w.
func grantToken(app app.App, w http.ResponseWriter, form url.Values) int {
	body := form.Encode()
	req, err := http.NewRequest("POST", "/", strings.NewReader(body))
	if err != nil {
		httpx.LogInternalError(w, "token.new_request", err)
		return http.StatusInternalServerError
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(body)))

	resp := httpx.NewResponseBuffer()
	app.UserCredentials(resp, req)
	if err := resp.Flush(w); err != nil {
		log.Warnf("token.flush: %s", err)
	}
	return resp.Status()
}
