package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/vpp/internal/core"
	"github.com/your-org/vpp/internal/vision"
)

// PipelineHandler exposes the run/freeze/stop state machine, stage
// bypass/engine-select switches, and tracker snapshot of every Registry
// pipeline over HTTP (§4.9 pipeline-control surface).
type PipelineHandler struct {
	registry *vision.Registry
}

func NewPipelineHandler(registry *vision.Registry) *PipelineHandler {
	return &PipelineHandler{registry: registry}
}

// List returns every registered pipeline's name.
func (h *PipelineHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pipelines": h.registry.Names()})
}

// Params returns a pipeline's worker state and per-stage control state:
// active engine, bypass, and disable flags — the closest Go-tree
// equivalent of the original's exposed parameter tree, without a full
// customisation::Parameter port.
func (h *PipelineHandler) Params(c *gin.Context) {
	snap, err := h.registry.Snapshot(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Start transitions a pipeline Idle -> Running. On a pipeline that is
// already started (Running or Halted) it only sets the retry signal; it
// does not unfreeze a Halted one.
func (h *PipelineHandler) Start(c *gin.Context) {
	status := h.registry.Start(c.Request.Context(), c.Param("name"))
	h.respondStatus(c, status)
}

// Stop transitions a pipeline to Idle, blocking until its worker exits.
func (h *PipelineHandler) Stop(c *gin.Context) {
	h.respondStatus(c, h.registry.Stop(c.Param("name")))
}

// Freeze halts a running pipeline after its current pass.
func (h *PipelineHandler) Freeze(c *gin.Context) {
	h.respondStatus(c, h.registry.Freeze(c.Param("name")))
}

// Unfreeze resumes a halted pipeline.
func (h *PipelineHandler) Unfreeze(c *gin.Context) {
	h.respondStatus(c, h.registry.Unfreeze(c.Param("name")))
}

type bypassRequest struct {
	Bypassed bool `json:"bypassed"`
}

// BypassStage sets whether a named stage skips its active engine.
func (h *PipelineHandler) BypassStage(c *gin.Context) {
	var req bypassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := h.registry.Bypass(c.Param("name"), c.Param("stage"), req.Bypassed)
	h.respondStatus(c, status)
}

type engineRequest struct {
	Engine string `json:"engine" binding:"required"`
}

// SelectEngine switches a named stage's active engine.
func (h *PipelineHandler) SelectEngine(c *gin.Context) {
	var req engineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := h.registry.UseEngine(c.Param("name"), c.Param("stage"), req.Engine)
	h.respondStatus(c, status)
}

// TrackerSnapshot reports the zones added/removed by the pipeline's most
// recent tracker pass.
func (h *PipelineHandler) TrackerSnapshot(c *gin.Context) {
	snap, err := h.registry.TrackerSnapshot(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *PipelineHandler) respondStatus(c *gin.Context, status core.Status) {
	if status == core.ErrNotExisting {
		c.JSON(http.StatusNotFound, gin.H{"error": "pipeline or stage not found"})
		return
	}
	if status.Fatal() {
		c.JSON(http.StatusConflict, gin.H{"error": status.String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status.String()})
}
