package server

import (
	"encoding/json"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"strconv"

	"github.com/mkappa/go-lens-raytracer/pkg/render"
	"github.com/mkappa/go-lens-raytracer/pkg/scene"
)

// Server handles web requests for the lensing raytracer
type Server struct {
	port int
	mux  *http.ServeMux
}

// NewServer creates a new web server
func NewServer(port int) *Server {
	s := &Server{port: port, mux: http.NewServeMux()}
	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/scenes", s.handleScenes)
	s.mux.HandleFunc("/api/config", s.handleConfig)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	return s
}

// Handler returns the server's handler, for tests and embedding
func (s *Server) Handler() http.Handler { return s.mux }

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleScenes lists the available built-in scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"scenes": scene.Names()})
}

// ConfigResponse summarizes a scene's tracer configuration
type ConfigResponse struct {
	Scene         string  `json:"scene"`
	ZSplit        float64 `json:"zSplit"`
	ZSource       float64 `json:"zSource"`
	Td            float64 `json:"td"`            // Transverse comoving distance to the deflector plane, Mpc
	Ts            float64 `json:"ts"`            // Transverse comoving distance to the source plane, Mpc
	Tds           float64 `json:"tds"`           // Deflector-to-source transverse comoving distance, Mpc
	ReducedToPhys float64 `json:"reducedToPhys"` // Reduced-to-physical deflection conversion factor
}

// handleConfig reports the distance bookkeeping of a scene's tracer
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	name := queryDefault(r, "scene", "default")
	sc, err := scene.CreateScene(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tracer := sc.Tracer
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ConfigResponse{
		Scene:         sc.Name,
		ZSplit:        tracer.ZSplit(),
		ZSource:       tracer.ZSource(),
		Td:            tracer.Td(),
		Ts:            tracer.Ts(),
		Tds:           tracer.Tds(),
		ReducedToPhys: tracer.ReducedToPhys(),
	})
}

// handleRender evaluates a lensing map and returns it as a PNG
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	name := queryDefault(r, "scene", "default")
	sc, err := scene.CreateScene(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	config := render.DefaultConfig()
	config.Type = render.MapType(queryDefault(r, "map", string(render.MapMagnification)))
	switch config.Type {
	case render.MapMagnification, render.MapConvergence, render.MapShear, render.MapDeflection:
	default:
		http.Error(w, fmt.Sprintf("unknown map type %q", config.Type), http.StatusBadRequest)
		return
	}

	size, err := queryInt(r, "size", 256)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if size < 16 || size > 1024 {
		http.Error(w, fmt.Sprintf("size must be between 16 and 1024, got %d", size), http.StatusBadRequest)
		return
	}
	config.Width = size
	config.Height = size

	fov, err := queryFloat(r, "fov", config.FOV)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if fov <= 0 {
		http.Error(w, fmt.Sprintf("fov must be positive, got %g", fov), http.StatusBadRequest)
		return
	}
	config.FOV = fov

	renderer := render.NewMapRenderer(sc.Tracer, sc.Params, config)
	img, stats, err := renderer.Render()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("Rendered %s/%s %dx%d in %v", sc.Name, config.Type, size, size, stats.Elapsed)

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		log.Printf("Error encoding image: %v", err)
	}
}

// queryDefault returns a query parameter or a default value
func queryDefault(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

// queryInt parses an integer query parameter
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

// queryFloat parses a float query parameter
func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return f, nil
}
