package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"stockdash/m/domain"
	"stockdash/m/internal/forecast"
	"stockdash/m/internal/inventory"
	"stockdash/m/internal/logging"
	"stockdash/m/internal/report"
	"stockdash/m/internal/store"
)

type ctxKey string

const ctxUser ctxKey = "user"

const maxUploadBytes = 10 << 20

// Options carries the settings the HTTP layer needs from the configuration.
type Options struct {
	Secret            string
	AdminUser         string
	AdminPassword     string
	LowStockThreshold int64
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	inventory *inventory.Service
	logger    logrus.FieldLogger
	secret    string
	admin     domain.User
	lowStock  int64
}

// New constructs a Handler. The admin password is hashed once here.
func New(svc *inventory.Service, logger logrus.FieldLogger, opts Options) (*Handler, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("unable to secure admin password: %w", err)
	}
	return &Handler{
		inventory: svc,
		logger:    logger,
		secret:    opts.Secret,
		admin:     domain.User{Username: opts.AdminUser, PasswordHash: hashed},
		lowStock:  opts.LowStockThreshold,
	}, nil
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.listInventory)
			r.Get("/search", h.searchInventory)
			r.Get("/export.csv", h.exportInventory)
			r.Post("/load", h.importInventory(inventory.ModeLoad))
			r.Post("/restock", h.importInventory(inventory.ModeRestock))
			r.Post("/estimate", h.estimateDemand)
			r.Put("/{id}", h.updateInventory)
			r.Delete("/{id}", h.deleteInventory)
		})

		pr.Route("/sales", func(r chi.Router) {
			r.Post("/", h.createSale)
			r.Get("/today", h.todaySales)
		})

		pr.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.summary)
			r.Get("/inventory.xlsx", h.workbook)
		})

		pr.Get("/history", h.history)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request served")
	})
}

// Authentication helpers

type authClaims struct {
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(username string) (string, error) {
	now := time.Now()
	claims := authClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok || claims.Subject == "" {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUser, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) string {
	user, _ := r.Context().Value(ctxUser).(string)
	return user
}

// Auth Handlers

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "please enter username and password")
		return
	}
	if req.Username != h.admin.Username || bcrypt.CompareHashAndPassword(h.admin.PasswordHash, []byte(req.Password)) != nil {
		h.logger.WithField("username", req.Username).Warn("failed login")
		respondError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}

	token, err := h.generateToken(h.admin.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: domain.User{Username: h.admin.Username}})
}

// Inventory Handlers

type inventoryResponse struct {
	Items      []domain.InventoryItem `json:"items"`
	Categories []string               `json:"categories"`
	Suppliers  []string               `json:"suppliers"`
	// Levels maps each listed ID to out, low or ok.
	Levels map[string]report.StockLevel `json:"stock_levels"`
}

func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	filter := inventory.Filter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Supplier: strings.TrimSpace(r.URL.Query().Get("supplier")),
	}
	items, err := h.inventory.List(r.Context(), filter)
	if err != nil {
		h.fail(w, "listInventory", err)
		return
	}
	categories, suppliers, err := h.inventory.Facets(r.Context())
	if err != nil {
		h.fail(w, "listInventory", err)
		return
	}
	levels := make(map[string]report.StockLevel, len(items))
	for _, item := range items {
		levels[item.ID] = report.Level(item, h.lowStock)
	}
	respondJSON(w, http.StatusOK, inventoryResponse{Items: items, Categories: categories, Suppliers: suppliers, Levels: levels})
}

func (h *Handler) searchInventory(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "query parameter is required")
		return
	}
	items, err := h.inventory.Search(r.Context(), query)
	if err != nil {
		h.fail(w, "searchInventory", err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) exportInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.List(r.Context(), inventory.Filter{})
	if err != nil {
		h.fail(w, "exportInventory", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.csv"`)
	if err := report.WriteCSV(w, items); err != nil {
		logging.LogError(h.logger, "api", "exportInventory", "writing CSV export", nil, err)
	}
}

type importResponse struct {
	Applied bool                   `json:"applied"`
	Items   []domain.InventoryItem `json:"items"`
}

// importInventory previews an uploaded CSV; with ?confirm=true it is applied.
func (h *Handler) importInventory(mode inventory.ImportMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
		items, err := h.inventory.PrepareImport(r.Context(), body, mode)
		if err != nil {
			h.fail(w, "importInventory", err)
			return
		}
		confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
		if !confirm {
			respondJSON(w, http.StatusOK, importResponse{Items: items})
			return
		}

		if mode == inventory.ModeLoad {
			err = h.inventory.LoadInitial(r.Context(), items, currentUser(r))
		} else {
			err = h.inventory.Restock(r.Context(), items, currentUser(r))
		}
		if err != nil {
			h.fail(w, "importInventory", err)
			return
		}
		respondJSON(w, http.StatusOK, importResponse{Applied: true, Items: items})
	}
}

func (h *Handler) updateInventory(w http.ResponseWriter, r *http.Request) {
	var req inventory.ProductUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.inventory.Edit(r.Context(), chi.URLParam(r, "id"), req, currentUser(r))
	if err != nil {
		h.fail(w, "updateInventory", err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) deleteInventory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.inventory.Delete(r.Context(), id, currentUser(r)); err != nil {
		h.fail(w, "deleteInventory", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (h *Handler) estimateDemand(w http.ResponseWriter, r *http.Request) {
	result, err := h.inventory.EstimateDemand(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, "estimateDemand", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Sales Handlers

type saleRequest struct {
	ID       string `json:"id"`
	Quantity int64  `json:"quantity"`
}

type dailySalesResponse struct {
	Date  string        `json:"date"`
	Sales []domain.Sale `json:"sales"`
	Total string        `json:"total"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}
	sale, err := h.inventory.RegisterSale(r.Context(), strings.TrimSpace(req.ID), req.Quantity, currentUser(r))
	if err != nil {
		h.fail(w, "createSale", err)
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

func (h *Handler) todaySales(w http.ResponseWriter, r *http.Request) {
	today := h.inventory.Today()
	sales, total, err := h.inventory.SalesOn(r.Context(), today)
	if err != nil {
		h.fail(w, "todaySales", err)
		return
	}
	respondJSON(w, http.StatusOK, dailySalesResponse{Date: today.Format(time.DateOnly), Sales: sales, Total: total.StringFixed(2)})
}

// Report Handlers

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.List(r.Context(), inventory.Filter{})
	if err != nil {
		h.fail(w, "summary", err)
		return
	}
	respondJSON(w, http.StatusOK, report.Summarize(items, h.lowStock))
}

func (h *Handler) workbook(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.List(r.Context(), inventory.Filter{})
	if err != nil {
		h.fail(w, "workbook", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory_report.xlsx"`)
	if err := report.WriteXLSX(w, report.Summarize(items, h.lowStock), items); err != nil {
		logging.LogError(h.logger, "api", "workbook", "writing XLSX report", nil, err)
	}
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	records, err := h.inventory.History(r.Context())
	if err != nil {
		h.fail(w, "history", err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// Helpers

// fail maps service errors to status codes. Unexpected errors are logged
// and reported without detail.
func (h *Handler) fail(w http.ResponseWriter, funcName string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicateID):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, inventory.ErrInvalidImport),
		errors.Is(err, inventory.ErrInvalidProduct):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, forecast.ErrMalformedInput):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logging.LogError(h.logger, "api", funcName, "handling request", nil, err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
