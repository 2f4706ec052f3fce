package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/otitou/wap-backend-go/internal/portfolio"
)

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	q := r.URL.Query()

	opt := portfolio.Options{
		IncludeSwaps:   q.Get("include_swaps") != "false",
		IncludeReviews: q.Get("include_reviews") != "false",
	}
	if v, err := strconv.Atoi(q.Get("swap_limit")); err == nil {
		opt.SwapLimit = v
	}
	if v, err := strconv.Atoi(q.Get("review_limit")); err == nil {
		opt.ReviewLimit = v
	}

	p, err := s.portfolio.Get(uid, opt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
