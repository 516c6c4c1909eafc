package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xenking/shiptrack/internal/artifact"
)

// Files serves objects from an artifact store at /files/<key>.
type Files struct {
	store artifact.Store
}

// NewFiles returns a handler serving store.
func NewFiles(store artifact.Store) *Files {
	return &Files{store: store}
}

func (h *Files) Register(r gin.IRouter) {
	r.GET("/files/*key", h.get)
}

func (h *Files) get(c *gin.Context) {
	key, err := artifact.CleanKey(c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.store.Verify(key, c.Query("expires"), c.Query("sig")); err != nil {
		writeError(c, err)
		return
	}

	obj, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		writeError(c, err)
		return
	}

	_, name := artifact.SplitKey(key)
	c.Header("Content-Disposition", "inline; filename="+strconv.Quote(name))
	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}
