package reconcile

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"runtime"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp-contracts/invoice-syncer/src/notes"
	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring"
	"github.com/warp-contracts/invoice-syncer/src/utils/task"
	"golang.org/x/time/rate"
)

// Rest API server, serves monitor counters and the reconciled invoices
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	monitor    monitoring.Monitor
	controller *Controller
	limiter    *RateLimiter
}

type setViewerRequest struct {
	Address string `json:"address" binding:"required"`
	ChainId int64  `json:"chainId"`
}

type postNoteRequest struct {
	Message string `json:"message" binding:"required"`
	Share   bool   `json:"share"`
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "server").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	if !config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	self.Router = gin.New()
	self.Router.Use(gin.Recovery())

	if config.RESTRateLimit > 0 {
		self.limiter = NewRateLimiter(rate.Limit(config.RESTRateLimit), max(config.RESTRateBurst, 1))
		self.Task = self.Task.WithPeriodicSubtaskFunc(self.limiter.maxIdle, self.limiter.cleanup)
	}

	self.httpServer = &http.Server{
		Addr:    self.Config.RESTListenAddress,
		Handler: self.Router,
	}

	return
}

func (self *Server) WithMonitor(monitor monitoring.Monitor) *Server {
	self.monitor = monitor
	return self
}

func (self *Server) WithController(controller *Controller) *Server {
	self.controller = controller
	self.routes()
	return self
}

func (self *Server) routes() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(self.monitor.GetPrometheusCollector())
	self.Router.GET("metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if self.Config.Profiler.Enabled {
		runtime.SetBlockProfileRate(self.Config.Profiler.BlockProfileRate)
		pprof.Register(self.Router)
	}

	v1 := self.Router.Group("v1")
	if self.limiter != nil {
		v1.Use(self.limiter.Middleware())
	}
	{
		v1.GET("health", self.monitor.OnGetHealth)
		v1.GET("state", self.monitor.OnGetState)
		v1.GET("invoices", self.onGetInvoices)
		v1.PUT("viewer", self.onPutViewer)
		v1.POST("refresh", self.onPostRefresh)
		v1.GET("admin", self.onGetAdmin)
		v1.GET("notes/:orderId", self.onGetNotes)
		v1.POST("notes/:orderId", self.onPostNote)
		v1.POST("notes/:orderId/:noteId/open", self.onOpenNote)
	}
}

func (self *Server) run() (err error) {
	err = self.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		self.Log.WithError(err).Error("Failed to start REST server")
		return
	}
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown REST server")
		return
	}
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func parseId(c *gin.Context, name string) (*big.Int, bool) {
	id, ok := new(big.Int).SetString(c.Param(name), 10)
	if !ok || id.Sign() < 0 {
		abort(c, http.StatusBadRequest, errors.New("invalid "+name))
		return nil, false
	}
	return id, true
}

func (self *Server) onGetInvoices(c *gin.Context) {
	c.JSON(http.StatusOK, self.controller.Store().Snapshot())
}

func (self *Server) onPutViewer(c *gin.Context) {
	var req setViewerRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	err = self.controller.SetViewer(req.Address, req.ChainId)
	switch {
	case errors.Is(err, ErrUnsupportedChain):
		abort(c, http.StatusNotImplemented, err)
		return
	case err != nil:
		abort(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"viewer": self.controller.Viewer()})
}

func (self *Server) onPostRefresh(c *gin.Context) {
	err := self.controller.Refresh()
	if err != nil {
		abort(c, http.StatusConflict, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (self *Server) onGetAdmin(c *gin.Context) {
	poller := self.controller.Admin()
	if poller == nil {
		abort(c, http.StatusNotFound, ErrAdminDisabled)
		return
	}

	snapshot := poller.Snapshot()
	if snapshot == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (self *Server) onGetNotes(c *gin.Context) {
	orderId, ok := parseId(c, "orderId")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, self.controller.Notes().Notes(c.Request.Context(), orderId))
}

func (self *Server) onPostNote(c *gin.Context) {
	orderId, ok := parseId(c, "orderId")
	if !ok {
		return
	}

	var req postNoteRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	note, err := self.controller.Notes().Post(c.Request.Context(), orderId, req.Message, req.Share)
	switch {
	case errors.Is(err, notes.ErrNotesDisabled):
		abort(c, http.StatusNotImplemented, err)
	case errors.Is(err, notes.ErrEmptyMessage):
		abort(c, http.StatusBadRequest, err)
	case err != nil:
		abort(c, http.StatusBadGateway, err)
	default:
		c.JSON(http.StatusCreated, note)
	}
}

func (self *Server) onOpenNote(c *gin.Context) {
	orderId, ok := parseId(c, "orderId")
	if !ok {
		return
	}
	noteId, ok := parseId(c, "noteId")
	if !ok {
		return
	}

	viewer := self.controller.Viewer()
	if viewer == "" {
		abort(c, http.StatusConflict, ErrNoViewer)
		return
	}

	err := self.controller.Notes().Open(c.Request.Context(), orderId, noteId, viewer)
	switch {
	case errors.Is(err, notes.ErrNoteNotFound):
		abort(c, http.StatusNotFound, err)
	case errors.Is(err, notes.ErrNotesDisabled):
		abort(c, http.StatusNotImplemented, err)
	case err != nil:
		abort(c, http.StatusBadGateway, err)
	default:
		c.Status(http.StatusNoContent)
	}
}
