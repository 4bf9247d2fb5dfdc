package transport

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/quorumforge/elections/election"
)

// RegisterStatusHandlers wires read-only /election/status and
// /election/servers endpoints reporting the coordinator's current state
// and membership view as JSON, for operator dashboards and health
// probes.
func RegisterStatusHandlers(router *mux.Router, coordinator *Statuser) {
	router.HandleFunc("/election/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(coordinator.Status()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	router.HandleFunc("/election/servers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(coordinator.Status().Servers); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// Statuser is the minimal read side of election.Coordinator this package
// depends on, kept narrow so the HTTP layer never needs to import the
// coordinator's mutating surface.
type Statuser struct {
	status func() election.Status
}

func NewStatuser(status func() election.Status) *Statuser {
	return &Statuser{status: status}
}

func (s *Statuser) Status() election.Status {
	return s.status()
}
