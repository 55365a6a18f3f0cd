package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches", handler.ListOpenMatches)
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/draft", handler.GetDraft)
}

func registerPrincipalRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerMatchRoutes(mux, handler, verifier)
	registerLeagueRoutes(mux, handler, verifier)
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/matches", RequirePrincipal(verifier, http.HandlerFunc(handler.CreateMatch)))
	mux.Handle("GET /v1/matches/{matchID}", RequirePrincipal(verifier, http.HandlerFunc(handler.GetMatch)))
	mux.Handle("POST /v1/matches/{matchID}/join", RequirePrincipal(verifier, http.HandlerFunc(handler.JoinMatch)))
	mux.Handle("POST /v1/matches/{matchID}/start", RequirePrincipal(verifier, http.HandlerFunc(handler.StartMatch)))
	mux.Handle("PUT /v1/matches/{matchID}/selections/{slot}", RequirePrincipal(verifier, http.HandlerFunc(handler.SubmitDeckSelection)))
	mux.Handle("DELETE /v1/matches/{matchID}/selections/{slot}", RequirePrincipal(verifier, http.HandlerFunc(handler.RemoveDeckSelection)))
	mux.Handle("PUT /v1/matches/{matchID}/alliance", RequirePrincipal(verifier, http.HandlerFunc(handler.SubmitAlliance)))
	mux.Handle("DELETE /v1/matches/{matchID}/alliance", RequirePrincipal(verifier, http.HandlerFunc(handler.ClearAlliance)))
	mux.Handle("POST /v1/matches/{matchID}/strikes", RequirePrincipal(verifier, http.HandlerFunc(handler.SubmitStrike)))
	mux.Handle("POST /v1/matches/{matchID}/bids", RequirePrincipal(verifier, http.HandlerFunc(handler.SubmitBid)))
	mux.Handle("POST /v1/matches/{matchID}/games", RequirePrincipal(verifier, http.HandlerFunc(handler.ReportGame)))
}

func registerLeagueRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/leagues", RequirePrincipal(verifier, http.HandlerFunc(handler.CreateLeague)))
	mux.Handle("POST /v1/leagues/{leagueID}/teams", RequirePrincipal(verifier, http.HandlerFunc(handler.CreateTeam)))
	mux.Handle("POST /v1/leagues/{leagueID}/signups", RequirePrincipal(verifier, http.HandlerFunc(handler.SignupForLeague)))
	mux.Handle("POST /v1/leagues/{leagueID}/draft", RequirePrincipal(verifier, http.HandlerFunc(handler.StartDraft)))
	mux.Handle("POST /v1/leagues/{leagueID}/draft/picks", RequirePrincipal(verifier, http.HandlerFunc(handler.MakePick)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/sweep", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSweepJob)))
}
