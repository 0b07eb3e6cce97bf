package utils

import (
	"net/http"
	"sync"

	_ "github.com/akolanti/ChatDocs/cmd/api/docs"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/http-swagger"
)

var once sync.Once
var router *chi.Mux

func GetNewUUID() string {
	return uuid.New().String()
}

type RouterClient struct {
	Router *chi.Mux
}

func GetChiURLParam(request *http.Request, key string) string {
	return chi.URLParam(request, key)
}

// GetRouter returns the process router with swagger and /metrics already mounted.
func GetRouter() RouterClient {
	once.Do(func() {
		router = NewRouter()
	})
	return RouterClient{Router: router}
}

// NewRouter builds an unshared router, used by tests.
func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	InitSwagger(r)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func InitSwagger(r *chi.Mux) {
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}
