package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amartya2002/uptime-checker-core/model"
	"github.com/amartya2002/uptime-checker-core/uptime"
)

const errorCountEvent = "errorCount"

// itemStatus reports the aggregate for folders and the last verdict for endpoints.
func (s *Server) itemStatus(c *gin.Context) {
	ctx := c.Request.Context()
	n, err := s.items.Get(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	st := n.LastStatus
	if n.IsFolder() {
		if st, err = s.status.FolderStatus(ctx, n.ID); err != nil {
			s.fail(c, err)
			return
		}
	}
	if st == model.StatusUnset {
		st = model.StatusUnknown
	}
	c.JSON(http.StatusOK, gin.H{"id": n.ID, "status": st})
}

func (s *Server) globalStatus(c *gin.Context) {
	count, err := s.status.GlobalErrorCount(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{errorCountEvent: count})
}

// events streams the global error count as server-sent events: the current
// value first, then every change published on the bus.
func (s *Server) events(c *gin.Context) {
	ctx := c.Request.Context()
	updates := make(chan int, 16)
	unsubscribe := s.bus.Subscribe(func(count int) {
		select {
		case updates <- count:
		default:
		}
	})
	defer unsubscribe()

	count, err := s.status.GlobalErrorCount(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.SSEvent(errorCountEvent, count)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case count := <-updates:
			c.SSEvent(errorCountEvent, count)
			return true
		}
	})
}

// queryLogs returns history in file order, filtered by any itemId query values.
func (s *Server) queryLogs(c *gin.Context) {
	records, err := s.logs.Query(c.QueryArray("itemId")...)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) itemLogs(c *gin.Context) {
	records, err := s.logs.Query(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) clearLogs(c *gin.Context) {
	if err := s.logs.ClearAll(); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clearItemLogs(c *gin.Context) {
	if err := s.logs.ClearForItem(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) checkAll(c *gin.Context) {
	results, err := s.scheduler.ForceCheckAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if results == nil {
		results = []uptime.Result{}
	}
	c.JSON(http.StatusOK, results)
}

// checkItem checks one endpoint, or every endpoint below a folder, right away.
func (s *Server) checkItem(c *gin.Context) {
	ctx := c.Request.Context()
	n, err := s.items.Get(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if n.IsEndpoint() {
		c.JSON(http.StatusOK, []uptime.Result{s.scheduler.CheckItemImmediately(ctx, n)})
		return
	}
	eps, err := s.items.GetDescendantEndpoints(ctx, n.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	results := s.scheduler.ForceCheckMany(ctx, eps)
	if results == nil {
		results = []uptime.Result{}
	}
	c.JSON(http.StatusOK, results)
}
