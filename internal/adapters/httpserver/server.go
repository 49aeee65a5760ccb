package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/evdms/dealer-console/internal/adapters/export"
	"github.com/evdms/dealer-console/internal/adapters/notify"
	"github.com/evdms/dealer-console/internal/domain"
	"github.com/evdms/dealer-console/internal/usecase"
)

// Server exposes the order wizard to the console UI as a small JSON API.
// All business rules live in the usecase layer; handlers translate HTTP to
// wizard operations and errors back to status codes.
type Server struct {
	mux      *http.ServeMux
	sessions *usecase.Manager
	apiToken string
}

func New(sessions *usecase.Manager, apiToken string) http.Handler {
	s := &Server{mux: http.NewServeMux(), sessions: sessions, apiToken: apiToken}
	s.routes()
	return Chain(s.mux,
		RateLimit(240),
		RequestID,
		Recovery,
		Logging,
		BearerAuth(apiToken),
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/wizard", s.handleCreate)
	s.mux.HandleFunc("GET /api/wizard/{id}", s.handleState)
	s.mux.HandleFunc("DELETE /api/wizard/{id}", s.handleClose)

	s.mux.HandleFunc("GET /api/wizard/{id}/customer/lookup", s.handleCustomerLookup)
	s.mux.HandleFunc("POST /api/wizard/{id}/customer", s.handleCustomer)

	s.mux.HandleFunc("POST /api/wizard/{id}/advance", s.handleAdvance)
	s.mux.HandleFunc("POST /api/wizard/{id}/back", s.handleBack)

	s.mux.HandleFunc("GET /api/wizard/{id}/catalog", s.handleCatalog)
	s.mux.HandleFunc("POST /api/wizard/{id}/cart", s.handleCartAdd)
	s.mux.HandleFunc("PUT /api/wizard/{id}/cart/{detailId}", s.handleCartUpdate)
	s.mux.HandleFunc("DELETE /api/wizard/{id}/cart/{detailId}", s.handleCartRemove)

	s.mux.HandleFunc("GET /api/wizard/{id}/promotions", s.handlePromotions)
	s.mux.HandleFunc("POST /api/wizard/{id}/promotion", s.handlePromotionSelect)

	s.mux.HandleFunc("GET /api/wizard/{id}/summary", s.handleSummary)
	s.mux.HandleFunc("GET /api/wizard/{id}/summary.xlsx", s.handleSummarySheet)
	s.mux.HandleFunc("POST /api/wizard/{id}/submit", s.handleSubmit)

	s.mux.HandleFunc("GET /api/wizard/{id}/notices", s.handleNotices)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*usecase.Session, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeErr(w, domain.Invalid("session", "malformed session id"))
		return nil, false
	}
	sess, ok := s.sessions.Get(r.Context(), id)
	if !ok {
		writeErr(w, domain.ErrNotFound)
		return nil, false
	}
	return sess, true
}

type stateResponse struct {
	SessionID string            `json:"sessionId"`
	Step      int               `json:"step"`
	StepName  string            `json:"stepName"`
	Draft     domain.OrderDraft `json:"draft"`
	Subtotal  float64           `json:"subtotal"`
	Discount  float64           `json:"discount"`
	Total     float64           `json:"total"`
}

func (s *Server) state(sess *usecase.Session) stateResponse {
	sub, disc, total := sess.Wizard.Totals()
	return stateResponse{
		SessionID: sess.ID.String(),
		Step:      int(sess.Wizard.Step()),
		StepName:  sess.Wizard.Step().String(),
		Draft:     sess.Wizard.Draft(),
		Subtotal:  sub,
		Discount:  disc,
		Total:     total,
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ResumeOrderID string `json:"resumeOrderId"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, domain.Invalid("body", "malformed json"))
			return
		}
	}
	var (
		sess *usecase.Session
		err  error
	)
	if in.ResumeOrderID != "" {
		sess, err = s.sessions.CreateResumed(r.Context(), in.ResumeOrderID)
		if err != nil {
			writeErr(w, err)
			return
		}
	} else {
		sess = s.sessions.Create(r.Context())
	}
	writeJSON(w, http.StatusCreated, s.state(sess))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.state(sess))
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeErr(w, domain.Invalid("session", "malformed session id"))
		return
	}
	s.sessions.Close(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCustomerLookup(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	c, err := sess.Wizard.LookupCustomer(r.Context(), r.URL.Query().Get("phone"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCustomer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var in struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, domain.Invalid("body", "malformed json"))
		return
	}
	sess.Wizard.SetCustomerInfo(in.Name, in.Phone, in.Email)
	writeJSON(w, http.StatusOK, s.state(sess))
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Wizard.Advance(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	s.sessions.Persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, s.state(sess))
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var in struct {
		Step int `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, domain.Invalid("body", "malformed json"))
		return
	}
	if err := sess.Wizard.Back(r.Context(), domain.Step(in.Step)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(sess))
}

type catalogItem struct {
	domain.CatalogEntry
	Available []int `json:"availableToAdd"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	cat, err := sess.Wizard.CatalogView(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	// annotate each color with the headroom this cart still has for it
	out := make([]catalogItem, 0, len(cat))
	for _, entry := range cat {
		item := catalogItem{CatalogEntry: entry, Available: make([]int, len(entry.Colors))}
		for i, c := range entry.Colors {
			item.Available[i] = sess.Wizard.AvailableToAdd(entry.ModelName, entry.VariantName, c.Name)
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var in struct {
		ModelName   string `json:"modelName"`
		VariantName string `json:"variantName"`
		Color       string `json:"color"`
		Quantity    int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, domain.Invalid("body", "malformed json"))
		return
	}
	if err := sess.Wizard.AddToCart(r.Context(), in.ModelName, in.VariantName, in.Color, in.Quantity); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(sess))
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, domain.Invalid("body", "malformed json"))
		return
	}
	if err := sess.Wizard.UpdateQuantity(r.Context(), r.PathValue("detailId"), in.Quantity); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(sess))
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Wizard.RemoveFromCart(r.Context(), r.PathValue("detailId")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(sess))
}

func (s *Server) handlePromotions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	force := r.URL.Query().Get("reload") == "1"
	list, err := sess.Wizard.PromotionList(r.Context(), force)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handlePromotionSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var in struct {
		PromotionID *string `json:"promotionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, domain.Invalid("body", "malformed json"))
		return
	}
	var err error
	if in.PromotionID == nil || *in.PromotionID == "" {
		err = sess.Wizard.ClearPromotion(r.Context())
	} else {
		err = sess.Wizard.SelectPromotion(r.Context(), *in.PromotionID)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(sess))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sum, err := sess.Wizard.Summary(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleSummarySheet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sum, err := sess.Wizard.Summary(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	buf, err := export.QuoteSheet(sum)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="order-`+sum.OrderID+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sum, err := sess.Wizard.Submit(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	s.sessions.Persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, map[string]any{
		"submitted": sum,
		"state":     s.state(sess),
	})
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	notices := []notify.Notice{}
	if buf, ok := sess.Notifier.(*notify.Buffer); ok {
		notices = buf.Drain()
	}
	writeJSON(w, http.StatusOK, notices)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrDuplicateCustomer),
		errors.Is(err, domain.ErrInactivePromotion),
		errors.Is(err, domain.ErrOrderNotDraft):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNoOrder):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnavailable):
		status = http.StatusBadGateway
	}
	body := map[string]any{
		"error":     usecase.UserMessage(err),
		"retryable": domain.Retryable(err),
	}
	if ve != nil && ve.Field != "" {
		body["field"] = ve.Field
	}
	writeJSON(w, status, body)
}
