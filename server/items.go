package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amartya2002/uptime-checker-core/model"
)

func (s *Server) listItems(c *gin.Context) {
	nodes, err := s.items.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if nodes == nil {
		nodes = []model.Node{}
	}
	c.JSON(http.StatusOK, nodes)
}

func (s *Server) getItem(c *gin.Context) {
	n, err := s.items.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// listChildren returns the ordered children of a folder; "root" lists the top level.
func (s *Server) listChildren(c *gin.Context) {
	var parentID *string
	if id := c.Param("id"); id != "root" {
		if _, err := s.items.Get(c.Request.Context(), id); err != nil {
			s.fail(c, err)
			return
		}
		parentID = &id
	}
	children, err := s.items.Children(c.Request.Context(), parentID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if children == nil {
		children = []model.Node{}
	}
	c.JSON(http.StatusOK, children)
}

func (s *Server) listEndpoints(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := s.items.Get(ctx, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	eps, err := s.items.GetDescendantEndpoints(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if eps == nil {
		eps = []model.Node{}
	}
	c.JSON(http.StatusOK, eps)
}

func (s *Server) createItem(c *gin.Context) {
	var n model.Node
	if err := c.ShouldBindJSON(&n); err != nil {
		badRequest(c, err)
		return
	}
	n.ResetStatus()

	ctx := c.Request.Context()
	created, err := s.items.Add(ctx, n)
	if err != nil {
		s.fail(c, err)
		return
	}
	if created.IsEndpoint() {
		s.reschedule(ctx)
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) createBatch(c *gin.Context) {
	var batch []model.Node
	if err := c.ShouldBindJSON(&batch); err != nil {
		badRequest(c, err)
		return
	}
	for i := range batch {
		batch[i].ApplyDefaults()
		if err := batch[i].Validate(); err != nil {
			badRequest(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	if err := s.items.AddBatch(ctx, batch); err != nil {
		s.fail(c, err)
		return
	}
	s.reschedule(ctx)
	c.JSON(http.StatusCreated, gin.H{"count": len(batch)})
}

func (s *Server) updateItem(c *gin.Context) {
	var patch model.NodePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := s.items.Get(ctx, id); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.items.Update(ctx, id, patch); err != nil {
		s.fail(c, err)
		return
	}
	updated, err := s.items.Get(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if updated.IsEndpoint() {
		s.reschedule(ctx)
	}
	c.JSON(http.StatusOK, updated)
}

// deleteItem removes the item and its subtree along with their check history.
func (s *Server) deleteItem(c *gin.Context) {
	ctx := c.Request.Context()
	removed, err := s.items.Delete(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(removed) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	if err := s.logs.ClearForItems(removed); err != nil {
		s.logger.Warn("failed to clear logs for deleted items", zap.Strings("ids", removed), zap.Error(err))
	}
	s.reschedule(ctx)
	s.refreshStatus(ctx)
	c.JSON(http.StatusOK, gin.H{"deleted": removed})
}

func (s *Server) clearItems(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.items.ClearAll(ctx); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.logs.ClearAll(); err != nil {
		s.logger.Warn("failed to clear logs", zap.Error(err))
	}
	s.reschedule(ctx)
	s.refreshStatus(ctx)
	c.Status(http.StatusNoContent)
}

type moveRequest struct {
	ParentID *string `json:"parentId"`
}

func (s *Server) moveItem(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := s.items.Move(ctx, c.Param("id"), req.ParentID); err != nil {
		s.fail(c, err)
		return
	}
	s.reschedule(ctx)
	s.respondItem(c, c.Param("id"))
}

type reorderRequest struct {
	TargetID *string `json:"targetId"`
	ParentID *string `json:"parentId"`
}

func (s *Server) reorderItem(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := s.items.Reorder(ctx, c.Param("id"), req.TargetID, req.ParentID); err != nil {
		s.fail(c, err)
		return
	}
	s.reschedule(ctx)
	s.respondItem(c, c.Param("id"))
}

func (s *Server) duplicateItem(c *gin.Context) {
	ctx := c.Request.Context()
	root, err := s.items.Duplicate(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.reschedule(ctx)
	c.JSON(http.StatusCreated, root)
}

func (s *Server) pauseItem(paused bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")
		n, err := s.items.Get(ctx, id)
		if err != nil {
			s.fail(c, err)
			return
		}
		if n.IsFolder() {
			eps, err := s.items.GetDescendantEndpoints(ctx, id)
			if err != nil {
				s.fail(c, err)
				return
			}
			ids := make([]string, 0, len(eps))
			for _, ep := range eps {
				ids = append(ids, ep.ID)
			}
			err = s.items.SetPausedMany(ctx, ids, paused)
		} else {
			err = s.items.SetPaused(ctx, id, paused)
		}
		if err != nil {
			s.fail(c, err)
			return
		}
		s.reschedule(ctx)
		s.respondItem(c, id)
	}
}

type pauseRequest struct {
	IDs []string `json:"ids"`
	All bool     `json:"all"`
}

// pauseMany applies to the listed endpoint ids, or to every endpoint when all is set.
func (s *Server) pauseMany(paused bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pauseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		ctx := c.Request.Context()
		var err error
		if req.All {
			err = s.items.SetPausedAll(ctx, paused)
		} else {
			err = s.items.SetPausedMany(ctx, req.IDs, paused)
		}
		if err != nil {
			s.fail(c, err)
			return
		}
		s.reschedule(ctx)
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) respondItem(c *gin.Context, id string) {
	n, err := s.items.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}
