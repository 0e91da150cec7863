package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amartya2002/uptime-checker-core/transfer"
)

const maxImportBytes = 10 << 20

// exportJSON downloads the whole tree, or the subtrees named by repeated id params.
func (s *Server) exportJSON(c *gin.Context) {
	nodes, err := s.items.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if ids := c.QueryArray("id"); len(ids) > 0 {
		nodes = transfer.Subtrees(nodes, ids...)
	}
	data, err := transfer.Export(nodes)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="uptime-export.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// importJSON adds every item in the uploaded array under fresh ids. Nothing is
// stored if any item is invalid.
func (s *Server) importJSON(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		badRequest(c, err)
		return
	}
	nodes, err := transfer.Import(data)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := s.items.Import(ctx, nodes); err != nil {
		s.fail(c, err)
		return
	}
	s.reschedule(ctx)
	c.JSON(http.StatusCreated, gin.H{"imported": len(nodes)})
}

type curlImportRequest struct {
	Command  string  `json:"command" binding:"required"`
	ParentID *string `json:"parentId"`
	Name     string  `json:"name"`
}

func (s *Server) importCurl(c *gin.Context) {
	var req curlImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	n, err := transfer.ParseCurl(req.Command)
	if err != nil {
		s.fail(c, err)
		return
	}
	n.ParentID = req.ParentID
	if req.Name != "" {
		n.Name = req.Name
	}

	ctx := c.Request.Context()
	created, err := s.items.Add(ctx, n)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.reschedule(ctx)
	c.JSON(http.StatusCreated, created)
}

func (s *Server) exportCurl(c *gin.Context) {
	n, err := s.items.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !n.IsEndpoint() {
		badRequest(c, fmt.Errorf("item %s is a folder", n.ID))
		return
	}
	c.String(http.StatusOK, transfer.ToCurl(n))
}
