package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"orderdash/internal/api/v1"
	"orderdash/internal/config"
	"orderdash/internal/logger"
	"orderdash/internal/store"
)

// Server HTTP服务器
type Server struct {
	cfg    *config.AppConfig
	router *gin.Engine
	http   *http.Server
	store  *store.DatasetStore
	v1     *v1.Handler
	log    *logger.Logger
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, log *logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}

	datasets := store.NewDatasetStore(store.Options{
		TTL:      time.Duration(cfg.Dashboard.DatasetTTLMinutes) * time.Minute,
		Capacity: cfg.Dashboard.MaxDatasets,
	})

	router := gin.New()
	router.MaxMultipartMemory = uploadLimit(cfg)
	router.Use(gin.Recovery(), logger.RequestLogger(log))

	s := &Server{
		cfg:    cfg,
		router: router,
		store:  datasets,
		v1:     v1.NewHandler(cfg, datasets, filepath.Join(dataDir, "exports"), log),
		log:    log,
	}

	s.setupRoutes(devMode)

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	api.Use(limitBody(uploadLimit(s.cfg)))
	{
		s.v1.RegisterRoutes(api)
	}

	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
	} else {
		s.router.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"error": "接口不存在"})
		})
	}
}

// limitBody 限制请求体大小，超出时返回 413
func limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("文件过大，上限 %d MB", limit>>20),
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func uploadLimit(cfg *config.AppConfig) int64 {
	return int64(cfg.Dashboard.MaxUploadMB) << 20
}

// Handler 返回路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，Shutdown 后返回 nil
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("server listening", "addr", addr, "dev_mode", s.cfg.Server.DevMode)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭，等待进行中的请求结束
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.DatasetStore {
	return s.store
}
