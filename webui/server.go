// Package webui serves the browser front-end: view model updates are pushed over a websocket and
// commands come back on the same socket or through a small JSON API.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gobwas/ws"

	"hrsync/interfaces"
)

// Tooltipper describes the cell under (row, col) of a view.
type Tooltipper interface {
	Tooltip(view string, row, col int) (string, bool)
}

// ViewModelGetter returns the last view model published for a view.
type ViewModelGetter interface {
	GetViewModel(view string) (interface{}, bool)
}

type WebServer struct {
	listenAddr string

	commandHandler interfaces.ViewCommandHandler

	router *chi.Mux

	socketsRw sync.RWMutex
	sockets   []*Socket
}

type ViewModelUpdate struct {
	View      string      `json:"v"`
	ViewModel interface{} `json:"m"`
}

type CommandRequest struct {
	View    string          `json:"v"`
	Command string          `json:"c"`
	Args    json.RawMessage `json:"a"`
}

// NewWebServer builds the router; call Serve to start listening.
func NewWebServer(listenAddr string) *WebServer {
	s := &WebServer{
		listenAddr: listenAddr,
		router:     chi.NewRouter(),
		sockets:    make([]*Socket, 0, 2),
	}

	r := s.router
	r.Use(middleware.Recoverer)

	// handle websockets:
	r.Get("/ws/", s.handleSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/views/{view}", s.handleGetView)
		r.Get("/views/{view}/tooltip", s.handleTooltip)
		r.Post("/views/{view}/{command}", s.handleCommand)
	})

	// serve the embedded front-end:
	r.Handle("/*", MaxAge(http.FileServer(http.FS(Static))))

	return s
}

func (s *WebServer) Handler() http.Handler { return s.router }

func (s *WebServer) ProvideViewCommandHandler(commandHandler interfaces.ViewCommandHandler) {
	s.commandHandler = commandHandler
}

// Serve listens until ctx is done.
func (s *WebServer) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.closeSockets()
	}()

	log.Printf("webui: listening on %s\n", s.listenAddr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// NotifyView implements interfaces.ViewNotifier; every connected socket gets the update.
func (s *WebServer) NotifyView(view string, viewModel interface{}) {
	s.socketsRw.RLock()
	defer s.socketsRw.RUnlock()

	for _, k := range s.sockets {
		k.NotifyView(view, viewModel)
	}
}

func (s *WebServer) appendSocket(socket *Socket) {
	s.socketsRw.Lock()
	defer s.socketsRw.Unlock()
	s.sockets = append(s.sockets, socket)
}

func (s *WebServer) removeSocket(k *Socket) {
	s.socketsRw.Lock()
	defer s.socketsRw.Unlock()

	for i, sk := range s.sockets {
		if sk == k {
			s.sockets = append(s.sockets[:i], s.sockets[i+1:]...)
			break
		}
	}
}

func (s *WebServer) closeSockets() {
	s.socketsRw.RLock()
	sockets := append([]*Socket(nil), s.sockets...)
	s.socketsRw.RUnlock()

	for _, k := range sockets {
		k.Close()
	}
}

func (s *WebServer) handleSocket(rw http.ResponseWriter, req *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(req, rw)
	if err != nil {
		log.Printf("webui: upgrade: %v\n", err)
		return
	}

	// create the Socket to handle bidirectional communication:
	socket := NewSocket(s, conn)
	s.appendSocket(socket)

	// start by sending all view models to this new socket:
	if s.commandHandler != nil {
		s.commandHandler.NotifyViewTo(socket)
	}
}

// execute looks up and runs one command with JSON arguments.
func (s *WebServer) execute(view, command string, rawArgs json.RawMessage) error {
	if s.commandHandler == nil {
		return fmt.Errorf("no view command handler provided")
	}

	ce, err := s.commandHandler.CommandFor(view, command)
	if err != nil {
		return err
	}

	// instantiate a specific args type for the command:
	args := ce.CreateArgs()
	if args != nil && len(rawArgs) > 0 {
		if err = json.Unmarshal(rawArgs, args); err != nil {
			return fmt.Errorf("error deserializing json command args: %w", err)
		}
	}

	return ce.Execute(args)
}

func writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		log.Printf("webui: encode response: %v\n", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *WebServer) handleCommand(rw http.ResponseWriter, req *http.Request) {
	view, command := chi.URLParam(req, "view"), chi.URLParam(req, "command")

	var rawArgs json.RawMessage
	if req.ContentLength != 0 {
		if err := json.NewDecoder(req.Body).Decode(&rawArgs); err != nil {
			writeJSON(rw, http.StatusBadRequest, errorResponse{err.Error()})
			return
		}
	}

	if err := s.execute(view, command, rawArgs); err != nil {
		writeJSON(rw, http.StatusUnprocessableEntity, errorResponse{err.Error()})
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (s *WebServer) handleGetView(rw http.ResponseWriter, req *http.Request) {
	getter, ok := s.commandHandler.(ViewModelGetter)
	if !ok {
		http.Error(rw, "view models are not available", http.StatusNotImplemented)
		return
	}

	vm, ok := getter.GetViewModel(chi.URLParam(req, "view"))
	if !ok {
		http.NotFound(rw, req)
		return
	}
	writeJSON(rw, http.StatusOK, vm)
}

func (s *WebServer) handleTooltip(rw http.ResponseWriter, req *http.Request) {
	tooltipper, ok := s.commandHandler.(Tooltipper)
	if !ok {
		http.Error(rw, "tooltips are not available", http.StatusNotImplemented)
		return
	}

	q := req.URL.Query()
	row, err := strconv.Atoi(q.Get("row"))
	if err != nil {
		http.Error(rw, "bad row", http.StatusBadRequest)
		return
	}
	col, err := strconv.Atoi(q.Get("col"))
	if err != nil {
		http.Error(rw, "bad col", http.StatusBadRequest)
		return
	}

	text, ok := tooltipper.Tooltip(chi.URLParam(req, "view"), row, col)
	if !ok {
		rw.WriteHeader(http.StatusNoContent)
		return
	}
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = rw.Write([]byte(text))
}
