package flow

import "github.com/gorilla/mux"

// Routes registers the handlers on r. gorilla mux is used because "/"
// in http.NewServeMux is a catch-all pattern.
func (c *Controller) Routes(r *mux.Router) {
	r.HandleFunc("/", c.HandleHome).Methods("GET")
	r.HandleFunc("/connect", c.HandleConnect).Methods("GET")
	r.HandleFunc("/callback", c.HandleCallback).Methods("GET")
	r.HandleFunc("/livez", c.HandleLivez).Methods("GET")
}
