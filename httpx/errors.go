package httpx

import (
	"fmt"
	"net/http"

	"github.com/saveur1/community-system/log"
)

// LogInternalError logs err under code and answers 500 with the default text.
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.WithFields(log.Fields{"code": code}).Error(err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// LogNotFound logs the missing id at debug level and answers 404.
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.WithFields(log.Fields{"code": code, "id": id}).Debug("not found")
	w.WriteHeader(http.StatusNotFound)
}

// LogStatus logs code at level and answers status with the default text.
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.WithFields(log.Fields{"code": code, "status": status}).Log(level.Logrus(), http.StatusText(status))
	http.Error(w, http.StatusText(status), status)
}

// LogStatusMsg logs code at level and answers status with the formatted
// message as body.
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.WithFields(log.Fields{"code": code, "status": status}).Log(level.Logrus(), errMsg)
	http.Error(w, errMsg, status)
}
