package main

import (
	"fmt"
	"net/http"
	"time"
)

// coachTimeout covers a round trip to the language model.
const coachTimeout = 29 * time.Second

func (app *application) routes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	var (
		common = func(next http.Handler) http.Handler {
			return app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(commonContext(next))))
		}
		noAuth = func(next http.Handler) http.Handler {
			return app.recoverPanic(common(app.timeout(defaultTimeout, next)))
		}
		session = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessionManager.LoadAndSave(
				app.webAuthnHandler.AuthenticateMiddleware(common(app.timeout(defaultTimeout, next))))))
		}
		mustSession = func(next http.Handler) http.Handler {
			return session(app.mustAuthenticate(next))
		}
		// slowSession is for requests that call external services.
		slowSession = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessionManager.LoadAndSave(
				app.webAuthnHandler.AuthenticateMiddleware(common(app.timeout(coachTimeout,
					app.mustAuthenticate(next)))))))
		}
		// stream skips the timeout handler because it buffers the response.
		stream = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessionManager.LoadAndSave(
				app.webAuthnHandler.AuthenticateMiddleware(common(app.mustAuthenticate(next))))))
		}
	)

	mux.Handle("GET /days/{day}", mustSession(http.HandlerFunc(app.dayGET)))
	mux.Handle("POST /days/{day}/rest", mustSession(http.HandlerFunc(app.dayRestPOST)))
	mux.Handle("GET /days/{day}/add-exercise", mustSession(http.HandlerFunc(app.addExerciseGET)))
	mux.Handle("POST /days/{day}/add-exercise", mustSession(http.HandlerFunc(app.addExercisePOST)))

	mux.Handle("POST /entries/{id}/complete", mustSession(http.HandlerFunc(app.entryCompletePOST)))
	mux.Handle("POST /entries/{id}/intensity", mustSession(http.HandlerFunc(app.entryIntensityPOST)))
	mux.Handle("POST /entries/{id}/actual", mustSession(http.HandlerFunc(app.entryActualPOST)))
	mux.Handle("GET /entries/{id}/swap", mustSession(http.HandlerFunc(app.entrySwapGET)))
	mux.Handle("POST /entries/{id}/swap", mustSession(http.HandlerFunc(app.entrySwapPOST)))

	mux.Handle("GET /week/advance", mustSession(http.HandlerFunc(app.weekAdvanceGET)))
	mux.Handle("POST /week/advance", slowSession(http.HandlerFunc(app.weekAdvancePOST)))

	mux.Handle("GET /exercises", mustSession(http.HandlerFunc(app.exercisesGET)))
	mux.Handle("POST /exercises", mustSession(http.HandlerFunc(app.exercisesPOST)))
	mux.Handle("POST /exercises/delete", mustSession(http.HandlerFunc(app.exercisesDeletePOST)))

	mux.Handle("GET /skills", mustSession(http.HandlerFunc(app.skillsGET)))
	mux.Handle("POST /skills/{id}/unlock", mustSession(http.HandlerFunc(app.skillUnlockPOST)))

	mux.Handle("GET /check-in", mustSession(http.HandlerFunc(app.checkInGET)))
	mux.Handle("POST /check-in", mustSession(http.HandlerFunc(app.checkInPOST)))
	mux.Handle("POST /fuel", mustSession(http.HandlerFunc(app.fuelPOST)))

	mux.Handle("GET /history", mustSession(http.HandlerFunc(app.historyGET)))

	mux.Handle("GET /coach", mustSession(http.HandlerFunc(app.coachGET)))
	mux.Handle("POST /coach", slowSession(http.HandlerFunc(app.coachPOST)))

	mux.Handle("GET /preferences", mustSession(http.HandlerFunc(app.preferencesGET)))
	mux.Handle("GET /preferences/export", mustSession(http.HandlerFunc(app.exportDocumentGET)))
	mux.Handle("GET /preferences/backup", mustSession(http.HandlerFunc(app.backupGET)))
	mux.Handle("POST /preferences/import", mustSession(http.HandlerFunc(app.importDocumentPOST)))
	mux.Handle("POST /preferences/delete-user", mustSession(http.HandlerFunc(app.deleteUserPOST)))

	mux.Handle("GET /events", stream(http.HandlerFunc(app.eventsGET)))

	mux.Handle("POST /api/registration/start", session(http.HandlerFunc(app.beginRegistration)))
	mux.Handle("POST /api/registration/finish", session(http.HandlerFunc(app.finishRegistration)))
	mux.Handle("POST /api/login/start", session(http.HandlerFunc(app.beginLogin)))
	mux.Handle("POST /api/login/finish", session(http.HandlerFunc(app.finishLogin)))
	mux.Handle("POST /api/logout", session(http.HandlerFunc(app.logout)))
	mux.Handle("POST "+reportsPath, noAuth(http.HandlerFunc(app.reportsPOST)))
	mux.Handle("GET /api/healthy", noAuth(http.HandlerFunc(app.healthy)))
	mux.Handle("GET /api/test/timeout", noAuth(http.HandlerFunc(app.testTimeout)))

	mux.Handle("GET /{$}", session(http.HandlerFunc(app.home)))

	// File server with custom 404 handling
	fileServerHandler, err := app.fileServerHandler()
	if err != nil {
		return nil, fmt.Errorf("fileServerHandler: %w", err)
	}
	mux.Handle("/", fileServerHandler)

	return mux, nil
}
