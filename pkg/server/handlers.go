package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/duynguyendang/shaclreport/pkg/common/errors"
	"github.com/duynguyendang/shaclreport/pkg/render"
	"github.com/duynguyendang/shaclreport/pkg/service"
	"github.com/gin-gonic/gin"
)

// handleDatasets returns the loaded datasets, newest first.
func (s *Server) handleDatasets(c *gin.Context) {
	datasets, err := s.service.Datasets()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

// handleUpload loads a multipart "file" field into a new dataset.
// Optional form fields: id, name, format.
func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			handleError(c, apperrors.NewAppError(http.StatusRequestEntityTooLarge, "Document too large", err))
			return
		}
		handleError(c, apperrors.NewAppError(http.StatusBadRequest, "Missing file", err))
		return
	}

	format, err := service.ResolveFormat(c.PostForm("format"), fh.Filename)
	if err != nil {
		handleError(c, err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		handleError(c, err)
		return
	}
	defer f.Close()

	name := c.PostForm("name")
	if name == "" {
		name = fh.Filename
	}

	meta, err := s.service.Load(c.Request.Context(), service.LoadRequest{
		ID:     c.PostForm("id"),
		Name:   name,
		Format: format,
	}, f)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meta)
}

func (s *Server) handleDataset(c *gin.Context) {
	meta, err := s.service.Dataset(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (s *Server) handleDelete(c *gin.Context) {
	if err := s.service.Delete(c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleSource returns the uploaded document, optionally sliced to the
// 1-based inclusive line range [start, end].
func (s *Server) handleSource(c *gin.Context) {
	content, err := s.service.Source(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	start, err := strconv.Atoi(c.Query("start"))
	if err != nil {
		start = 1
	}
	end, err := strconv.Atoi(c.Query("end"))
	if err != nil {
		end = -1
	}

	lines := strings.Split(string(content), "\n")
	if start < 1 {
		start = 1
	}
	if end == -1 || end > len(lines) {
		end = len(lines)
	}

	if start > len(lines) || start > end {
		c.String(http.StatusOK, "")
		return
	}

	c.String(http.StatusOK, strings.Join(lines[start-1:end], "\n"))
}

// handleQuery runs a SPARQL SELECT and returns {variables, rows}.
func (s *Server) handleQuery(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apperrors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		handleError(c, apperrors.NewAppError(http.StatusBadRequest, "Missing query", nil))
		return
	}

	res, err := s.service.Query(c.Request.Context(), c.Param("id"), req.Query)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleTriples returns the first triples of a dataset.
func (s *Server) handleTriples(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	table, err := s.service.Triples(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// handleReport renders the validation report as JSON, HTML or Markdown.
func (s *Server) handleReport(c *gin.Context) {
	format, err := render.ParseFormat(c.Query("format"))
	if err != nil {
		handleError(c, apperrors.NewAppError(http.StatusBadRequest, "Unknown report format", err))
		return
	}

	var buf bytes.Buffer
	if err := s.service.RenderReport(c.Request.Context(), c.Param("id"), format, &buf); err != nil {
		handleError(c, err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// handleGraph returns the report as a D3 force-directed graph.
func (s *Server) handleGraph(c *gin.Context) {
	graph, err := s.service.Graph(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.service.Stats(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// handleExport streams the dataset back as N-Triples.
func (s *Server) handleExport(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.service.ExportNTriples(c.Request.Context(), c.Param("id"), &buf); err != nil {
		handleError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/n-triples; charset=utf-8", buf.Bytes())
}

// handlePredicates lists distinct predicates; ?near= ranks them by similarity.
func (s *Server) handlePredicates(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	preds, err := s.service.Predicates(c.Param("id"), c.Query("near"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"predicates": preds})
}

func handleError(c *gin.Context, err error) {
	appErr := apperrors.MapError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Code, appErr.Body())
}
