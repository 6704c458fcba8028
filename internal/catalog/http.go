package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"OrderPlus/internal/notify"
	"OrderPlus/pkg/kit"
)

const defaultFeedLimit = 20

type Server struct {
	Catalog *Catalog
	Feed    notify.Feed
	Log     *zap.Logger
}

// priceInput accepts a price as either a JSON string or a JSON number and
// keeps its literal text for validation.
type priceInput string

func (p *priceInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*p = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = priceInput(s)
	default:
		*p = priceInput(b)
	}
	return nil
}

type productReq struct {
	Code  string     `json:"code"`
	Name  string     `json:"name"`
	Price priceInput `json:"price"`
}

type writeResp struct {
	Product  Product `json:"product"`
	Message  string  `json:"message"`
	Products View    `json:"products"`
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Catalog.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) browse(w http.ResponseWriter, r *http.Request) {
	v, err := s.Catalog.Browse(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.logger().Error("browse products failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "Error loading products.", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, v)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.Catalog.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	if err != nil {
		s.logger().Error("get product failed", zap.Error(err), zap.String("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	d, ok := s.decodeDraft(w, r)
	if !ok {
		return
	}

	p, err := s.Catalog.Create(r.Context(), d)
	if err != nil {
		s.writeWriteError(w, r, err, "Error creating product")
		return
	}
	s.writeResult(w, r, http.StatusCreated, p, "Product created.")
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, ok := s.decodeDraft(w, r)
	if !ok {
		return
	}

	p, err := s.Catalog.Update(r.Context(), id, d)
	if err != nil {
		s.writeWriteError(w, r, err, "Error editing product")
		return
	}
	s.writeResult(w, r, http.StatusOK, p, "Product updated.")
}

func (s *Server) notifications(w http.ResponseWriter, r *http.Request) {
	if s.Feed == nil {
		kit.WriteJSON(w, http.StatusOK, []notify.Notification{})
		return
	}

	limit := defaultFeedLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			kit.WriteError(w, r, http.StatusBadRequest, "bad limit", nil)
			return
		}
		limit = n
	}

	u, _ := UserFromContext(r.Context())
	list, err := s.Feed.Recent(r.Context(), u.ID, limit)
	if err != nil {
		s.logger().Error("read notifications failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) decodeDraft(w http.ResponseWriter, r *http.Request) (Draft, bool) {
	var req productReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return Draft{}, false
	}

	d, err := ParseDraft(req.Code, req.Name, string(req.Price))
	if err != nil {
		var fe FieldErrors
		if errors.As(err, &fe) {
			kit.WriteError(w, r, http.StatusBadRequest, "invalid product", fe)
			return Draft{}, false
		}
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product", nil)
		return Draft{}, false
	}
	return d, true
}

// writeResult answers a successful write with the product and a re-fetched
// listing, the way the UI refreshes after every write.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, status int, p Product, msg string) {
	v, err := s.Catalog.Browse(r.Context(), "")
	if err != nil {
		s.logger().Warn("refresh after write failed", zap.Error(err))
		v = View{Products: []Product{}}
	}
	kit.WriteJSON(w, status, writeResp{Product: p, Message: msg, Products: v})
}

func (s *Server) writeWriteError(w http.ResponseWriter, r *http.Request, err error, generic string) {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		kit.WriteError(w, r, http.StatusConflict, conflict.Message(), map[string]any{
			"field": conflict.Field,
			"value": conflict.Value,
		})
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": chi.URLParam(r, "id")})
	default:
		kit.WriteError(w, r, http.StatusInternalServerError, generic, nil)
	}
}
