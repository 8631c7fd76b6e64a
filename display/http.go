package display

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
)

// HTTP serves the latest rendered line on a small status page. Only the most
// recent message is retained; each render overwrites the previous one.
type HTTP struct {
	mu      sync.Mutex
	latest  string
	updated time.Time
}

// NewHTTP starts serving on the given address. Failing to bind is a bring-up
// failure and is returned to the caller; later serving errors are only
// logged since the display is best effort.
func NewHTTP(listen string) (*HTTP, error) {
	h := &HTTP{}
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := http.Serve(ln, h.handler()); err != nil {
			glog.Errorf("status page stopped serving: %s", err)
		}
	}()
	return h, nil
}

func (h *HTTP) handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET("/", h.latestText)
	router.GET("/api/latest", h.latestJSON)
	return router
}

func (h *HTTP) Render(text string) error {
	h.mu.Lock()
	h.latest = text
	h.updated = time.Now()
	h.mu.Unlock()
	return nil
}

func (h *HTTP) latestText(c *gin.Context) {
	h.mu.Lock()
	text := h.latest
	h.mu.Unlock()
	if text == "" {
		c.String(http.StatusNotFound, "no message received yet\n")
		return
	}
	c.String(http.StatusOK, "%s\n", text)
}

func (h *HTTP) latestJSON(c *gin.Context) {
	h.mu.Lock()
	text, updated := h.latest, h.updated
	h.mu.Unlock()
	if text == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no message received yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"latest":  text,
		"updated": updated.Format(time.RFC3339Nano),
	})
}
