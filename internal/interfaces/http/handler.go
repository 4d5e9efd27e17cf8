package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the daemon's operational surface: a liveness probe that
// checks for recent column file writes, and the Prometheus metrics endpoint.
type Handler struct {
	router   *gin.Engine
	dataRoot string
	maxAge   time.Duration
}

type healthResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func NewHandler(dataRoot string, maxAge time.Duration, registry *prometheus.Registry) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:   router,
		dataRoot: dataRoot,
		maxAge:   maxAge,
	}

	router.GET("/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// healthCheck reports healthy while at least one column file under the data
// root has been modified within the configured window. Ingestion writes
// through buffered files on every flush, so a quiet window this long means
// every connection is stalled.
func (h *Handler) healthCheck(c *gin.Context) {
	recent, err := h.recentColumnWrites(time.Now())
	switch {
	case err != nil:
		c.JSON(http.StatusInternalServerError, healthResponse{Status: "error", Detail: err.Error()})
	case !recent:
		c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Detail: "no recent column file writes"})
	default:
		c.JSON(http.StatusOK, healthResponse{Status: "ok"})
	}
}

func (h *Handler) recentColumnWrites(now time.Time) (bool, error) {
	symbols, err := os.ReadDir(h.dataRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	for _, symbol := range symbols {
		if !symbol.IsDir() {
			continue
		}
		mdDir := filepath.Join(h.dataRoot, symbol.Name(), "MD")
		files, err := os.ReadDir(mdDir)
		if err != nil {
			continue
		}
		for _, file := range files {
			if !strings.HasSuffix(file.Name(), ".bin") {
				continue
			}
			info, err := file.Info()
			if err != nil {
				continue
			}
			if now.Sub(info.ModTime()) <= h.maxAge {
				return true, nil
			}
		}
	}
	return false, nil
}
