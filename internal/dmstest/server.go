// Package dmstest provides an in-memory fake of the Classic and Angora DMS
// APIs for tests. Every request is recorded, and failures can be injected
// per method and path.
package dmstest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/eisenvault/evshare/internal/constants"
	"github.com/eisenvault/evshare/internal/models"
)

// Path prefixes of the two API variants.
const (
	ClassicPrefix = constants.ClassicAPIPath
	AngoraPrefix  = constants.AngoraAPIPath
)

// DefaultToken is the Authorization value the server accepts unless Token is changed.
const DefaultToken = "Basic dGVzdDp0ZXN0"

// Request is one recorded request.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Upload is one file received by an upload endpoint.
type Upload struct {
	ParentID string
	Name     string
	Data     []byte
	Fields   map[string]string // non-file multipart fields
	Header   http.Header
}

// Node is a fixture entry. Kind is one of site, container, folder, file, department.
type Node struct {
	ID        string
	Name      string
	Kind      string
	Parent    string
	CanCreate bool
	// NumericID makes Angora responses carry the id as a JSON number.
	NumericID bool
	// Extra fields merged into Angora listing items.
	Extra map[string]interface{}
}

type fault struct {
	httpStatus int
	body       string
}

// Server is a fake DMS.
type Server struct {
	*httptest.Server

	// Token is the accepted Authorization header value.
	Token string

	// UploadDelay holds each upload handler before it answers.
	UploadDelay time.Duration

	mu       sync.Mutex
	variant  models.InstanceType
	nodes    map[string]*Node
	children map[string][]string
	roots    []string
	requests []Request
	uploads  []Upload
	faults   map[string]fault
	nextID   int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

// NewClassic starts a Classic server seeded with ClassicFixture.
func NewClassic(t testing.TB) *Server {
	return start(t, models.InstanceClassic, ClassicFixture())
}

// NewAngora starts an Angora server seeded with AngoraFixture.
func NewAngora(t testing.TB) *Server {
	return start(t, models.InstanceAngora, AngoraFixture())
}

func start(t testing.TB, variant models.InstanceType, fixture []Node) *Server {
	t.Helper()

	s := &Server{
		Token:    DefaultToken,
		variant:  variant,
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
		faults:   make(map[string]fault),
	}
	for i := range fixture {
		s.addNode(fixture[i])
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.authenticate)
	r.Use(s.injectFaults)

	if variant == models.InstanceClassic {
		r.Route(ClassicPrefix, s.classicRoutes)
	} else {
		r.Route(AngoraPrefix, s.angoraRoutes)
	}

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Credentials returns credentials pointing at the server.
func (s *Server) Credentials() *models.Credentials {
	creds := &models.Credentials{
		BaseURL:      s.URL,
		AuthToken:    s.Token,
		InstanceType: s.variant,
	}
	if s.variant == models.InstanceAngora {
		creds.CustomerHostname = "acme.example.com"
	}
	return creds
}

// FailWith makes every method request to path answer status with body until cleared.
func (s *Server) FailWith(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+path] = fault{httpStatus: status, body: body}
}

// FailEnvelope makes an Angora endpoint answer HTTP 200 with a failing envelope status.
func (s *Server) FailEnvelope(method, path string, status int) {
	body := fmt.Sprintf(`{"status":%d,"message":"request rejected"}`, status)
	s.FailWith(method, path, http.StatusOK, body)
}

// ClearFailures removes all injected failures.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]fault)
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount returns the number of recorded requests.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// CountRequests returns how many recorded requests match method and path.
func (s *Server) CountRequests(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// ResetRequests clears the request log.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Uploads returns the received uploads sorted by name.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Upload, len(s.uploads))
	copy(out, s.uploads)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MaxConcurrentUploads returns the highest number of uploads handled at once.
func (s *Server) MaxConcurrentUploads() int {
	return int(s.maxInFlight.Load())
}

// ChildNames returns the names of parentID's children in creation order.
func (s *Server) ChildNames(parentID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, id := range s.children[parentID] {
		names = append(names, s.nodes[id].Name)
	}
	return names
}

// AddNode adds a fixture node.
func (s *Server) AddNode(n Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addNode(n)
}

func (s *Server) addNode(n Node) {
	node := n
	s.nodes[n.ID] = &node
	if n.Parent == "" {
		s.roots = append(s.roots, n.ID)
	} else {
		s.children[n.Parent] = append(s.children[n.Parent], n.ID)
	}
}

// createChild adds a node under parent and returns it. Caller holds s.mu.
func (s *Server) createChild(parent, name, kind string) *Node {
	s.nextID++
	n := Node{
		ID:        fmt.Sprintf("new-%d", s.nextID),
		Name:      name,
		Kind:      kind,
		Parent:    parent,
		CanCreate: true,
	}
	s.addNode(n)
	return s.nodes[n.ID]
}

// childNamed returns parent's child called name. Caller holds s.mu.
func (s *Server) childNamed(parent, name string) *Node {
	for _, id := range s.children[parent] {
		if s.nodes[id].Name == name {
			return s.nodes[id]
		}
	}
	return nil
}

func (s *Server) lookup(id string) (*Node, []*Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, nil, false
	}
	kids := make([]*Node, 0, len(s.children[id]))
	for _, cid := range s.children[id] {
		c := *s.nodes[cid]
		kids = append(kids, &c)
	}
	copyNode := *n
	return &copyNode, kids, true
}

func (s *Server) rootNodes() []*Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Node, 0, len(s.roots))
	for _, id := range s.roots {
		n := *s.nodes[id]
		out = append(out, &n)
	}
	return out
}

func (s *Server) recordUpload(u Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, u)
	s.createChild(u.ParentID, u.Name, "file")
}

// trackUpload measures concurrency and applies UploadDelay.
func (s *Server) trackUpload() func() {
	n := s.inFlight.Add(1)
	for {
		max := s.maxInFlight.Load()
		if n <= max || s.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}
	if s.UploadDelay > 0 {
		time.Sleep(s.UploadDelay)
	}
	return func() { s.inFlight.Add(-1) }
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != s.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error": map[string]interface{}{"statusCode": 401, "briefSummary": "Authentication failed"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.faults[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.httpStatus)
			io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// readUpload parses a multipart upload with the file in part fileField.
func readUpload(r *http.Request, fileField string) (Upload, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return Upload{}, err
	}
	file, header, err := r.FormFile(fileField)
	if err != nil {
		return Upload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Upload{}, err
	}

	fields := make(map[string]string)
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return Upload{Name: header.Filename, Data: data, Fields: fields, Header: r.Header.Clone()}, nil
}
