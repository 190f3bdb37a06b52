package internalhttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/quiethours/scheduler/internal/app"
	"github.com/quiethours/scheduler/internal/identity"
	"github.com/quiethours/scheduler/internal/scanner"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host      string
	Port      int
	RunSecret string
}

type Server struct {
	srv       *http.Server
	addr      string
	app       *app.App
	scanner   *scanner.Scanner
	identity  identity.Provider
	runSecret string
}

func NewServer(config Config, app *app.App, scanner *scanner.Scanner, provider identity.Provider) *Server {
	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	s := &Server{
		addr:      addr,
		app:       app,
		scanner:   scanner,
		identity:  provider,
		runSecret: config.RunSecret,
	}
	s.srv = &http.Server{Addr: addr, Handler: s.routes()}
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	blocks := r.PathPrefix("/blocks").Subrouter()
	blocks.Use(s.authMiddleware)
	blocks.HandleFunc("", s.listBlocks).Methods(http.MethodGet)
	blocks.HandleFunc("", s.createBlock).Methods(http.MethodPost)
	blocks.HandleFunc("/{id}", s.updateBlock).Methods(http.MethodPut)
	blocks.HandleFunc("/{id}", s.deleteBlock).Methods(http.MethodDelete)

	// Invoked by an external scheduler, guarded by the run secret instead of
	// user auth.
	r.HandleFunc("/reminders/run", s.runReminders).Methods(http.MethodPost)

	return loggingMiddleware(r)
}

func (s *Server) Start(_ context.Context) error {
	log.Printf("starting http server on %s", s.addr)
	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
