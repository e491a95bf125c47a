package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ProductStore/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Store *Store
	Log   *zap.Logger

	// MutationLimiter throttles add/edit/delete when set.
	MutationLimiter *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.log().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/index/", s.index)

	r.Route("/products", func(r chi.Router) {
		r.Get("/product_id/{id}", s.getByID)
		r.Get("/product_name/{name}", s.getByName)
		r.Get("/{field}/{value}", s.getByField)

		r.Group(func(r chi.Router) {
			if s.MutationLimiter != nil {
				r.Use(s.MutationLimiter.Middleware)
			}
			r.Post("/add/", s.add)
			r.Put("/edit/{id}/", s.edit)
			r.Delete("/delete/{id}/", s.remove)
		})
	})

	return r
}

type listResponse struct {
	Products []Product `json:"Products"`
}

type lookupResponse struct {
	Product []Product `json:"product"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type addResponse struct {
	Message  string    `json:"message"`
	Warning  string    `json:"warning,omitempty"`
	Products []Product `json:"products"`
}

type mutationResponse struct {
	Message string    `json:"message"`
	Product []Product `json:"Product"`
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, listResponse{Products: s.Store.All()})
}

func (s *Server) getByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	writeLookup(w, s.Store.FindByID(id), fmt.Sprintf("Not found product with id %d", id))
}

func (s *Server) getByName(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")

	found, err := s.Store.FindByField(FieldName, name)
	if err != nil {
		s.log().Error("find by name failed", zap.Error(err), zap.String("name", name))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	writeLookup(w, found, fmt.Sprintf("Not found product with name %s", name))
}

func (s *Server) getByField(w http.ResponseWriter, r *http.Request) {
	field := pathParam(r, "field")
	raw := pathParam(r, "value")

	value, err := ParseFieldValue(field, raw)
	if err != nil {
		writeFieldError(w, r, err, field)
		return
	}

	found, err := s.Store.FindByField(field, value)
	if err != nil {
		writeFieldError(w, r, err, field)
		return
	}
	shown := raw
	if field == FieldID {
		shown = fmt.Sprint(value)
	}
	writeLookup(w, found, fmt.Sprintf("Not found product with %s %s", field, shown))
}

type addRequest struct {
	ID       *int64           `json:"id" validate:"required"`
	Name     *string          `json:"name" validate:"required"`
	Price    *decimal.Decimal `json:"price" validate:"required"`
	Quantity *decimal.Decimal `json:"quantity" validate:"required"`
	Color    *string          `json:"color" validate:"required"`
	Unique   *bool            `json:"unique" validate:"required"`
	City     *string          `json:"city" validate:"required"`
}

func (req addRequest) product() Product {
	return Product{
		ID:       *req.ID,
		Name:     *req.Name,
		Price:    *req.Price,
		Quantity: *req.Quantity,
		Color:    *req.Color,
		Unique:   *req.Unique,
		City:     *req.City,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.log().Warn("add: bad body", zap.Error(err))
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if missing := missingFields(validate.Struct(req)); len(missing) > 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "missing field", map[string]any{"fields": missing})
		return
	}

	res, err := s.Store.Add(req.product())
	if err != nil {
		s.log().Error("add failed", zap.Error(err), zap.Int64("id", *req.ID))
		kit.WriteError(w, r, http.StatusConflict, "id unavailable", map[string]any{"cause": err.Error()})
		return
	}

	resp := addResponse{
		Message:  fmt.Sprintf("Product %d added correctly", res.Product.ID),
		Products: res.Products,
	}
	if res.Reassigned {
		resp.Warning = fmt.Sprintf("Warning: Product ID changed from %d to %d", res.RequestedID, res.Product.ID)
		s.log().Warn("product id reassigned",
			zap.Int64("requested_id", res.RequestedID),
			zap.Int64("id", res.Product.ID),
		)
	}
	kit.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) edit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if len(s.Store.FindByID(id)) == 0 {
		s.log().Info("edit: product not found", zap.Int64("id", id))
		writeNotInDatabase(w, id)
		return
	}

	var body map[string]json.RawMessage
	if err := decodeBody(w, r, &body); err != nil {
		s.log().Warn("edit: bad body", zap.Error(err), zap.Int64("id", id))
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	updates := make(map[string]any, len(body))
	for field, raw := range body {
		if field == FieldID {
			continue
		}
		v, err := DecodeFieldValue(field, raw)
		if err != nil {
			writeFieldError(w, r, err, field)
			return
		}
		updates[field] = v
	}

	updated, found, err := s.Store.Edit(id, updates)
	if err != nil {
		writeFieldError(w, r, err, "")
		return
	}
	if !found {
		s.log().Info("edit: product not found", zap.Int64("id", id))
		writeNotInDatabase(w, id)
		return
	}

	kit.WriteJSON(w, http.StatusOK, mutationResponse{
		Message: fmt.Sprintf("Product with ID %d changed successfully", id),
		Product: updated,
	})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	removed, found := s.Store.Remove(id)
	if !found {
		s.log().Info("delete: product not found", zap.Int64("id", id))
		writeNotInDatabase(w, id)
		return
	}

	kit.WriteJSON(w, http.StatusOK, mutationResponse{
		Message: fmt.Sprintf("Product with ID %d deleted successfully", id),
		Product: removed,
	})
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func writeLookup(w http.ResponseWriter, found []Product, notFound string) {
	if len(found) == 0 {
		kit.WriteJSON(w, http.StatusNotFound, messageResponse{Message: notFound})
		return
	}
	kit.WriteJSON(w, http.StatusOK, lookupResponse{Product: found})
}

func writeNotInDatabase(w http.ResponseWriter, id int64) {
	kit.WriteJSON(w, http.StatusNotFound, messageResponse{
		Message: fmt.Sprintf("WARNING! Product with ID %d is not in the database!", id),
	})
}

func writeFieldError(w http.ResponseWriter, r *http.Request, err error, field string) {
	details := map[string]any{"cause": err.Error()}
	if field != "" {
		details["field"] = field
	}

	switch {
	case errors.Is(err, ErrUnknownField):
		details["known"] = Fields
		kit.WriteError(w, r, http.StatusBadRequest, "unknown field", details)
	case errors.Is(err, ErrInvalidValue):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid value", details)
	default:
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

// pathParam returns the decoded value of a route parameter. chi matches on
// the escaped path when one is present.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}

func missingFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Field())
	}
	return out
}
