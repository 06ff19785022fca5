package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"orderdash/internal/config"
	"orderdash/internal/exporter"
	"orderdash/internal/logger"
	"orderdash/internal/parser"
	"orderdash/internal/pipeline"
	"orderdash/internal/server"
)

var (
	port       = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode    = flag.Bool("dev", false, "开发模式")
	dataDir    = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	year       = flag.Int("year", 0, "参考年份 (覆盖配置文件)")
	inputFile  = flag.String("file", "", "直接处理该文件并输出 JSON，不启动服务")
	exportPath = flag.String("export", "", "与 -file 一起使用：导出 Excel 到该路径")
)

func main() {
	flag.Parse()

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}
	if *year > 0 {
		cfg.Dashboard.ReferenceYear = *year
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("配置无效: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Sync()

	if *inputFile != "" {
		if err := runOnce(cfg, zlog, *inputFile, *exportPath); err != nil {
			zlog.Error("processing failed", "file", *inputFile, "error", err)
			os.Exit(1)
		}
		return
	}
	if *exportPath != "" {
		log.Fatalf("-export 需要与 -file 一起使用")
	}

	fmt.Println("==========================================")
	fmt.Println("  OrderDash - 客户订单看板")
	fmt.Println("==========================================")
	if info.FileFound {
		fmt.Printf("配置文件: %s\n", info.Path)
	}

	srv, err := server.NewServer(cfg, zlog)
	if err != nil {
		zlog.Fatal("server init failed", "error", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		if err := srv.Run(addr); err != nil {
			zlog.Fatal("server stopped", "error", err)
		}
	}()

	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("shutdown failed", "error", err)
	}
}

// runOnce 读取文件、聚合，输出 JSON 或导出 Excel
func runOnce(cfg *config.AppConfig, zlog *logger.Logger, path, xlsxPath string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	table, loadInfo, err := parser.Load(filepath.Base(path), f)
	if err != nil {
		return err
	}
	zlog.Debug("file loaded", "format", loadInfo.Format, "rows", table.Len())

	result, err := pipeline.Run(table, cfg.Dashboard.ReferenceYear)
	if err != nil {
		return err
	}

	if xlsxPath != "" {
		err := exporter.NewExporter().WriteFile(result, exporter.ExportOptions{
			SourceFilename: filepath.Base(path),
			GeneratedAt:    time.Now(),
		}, xlsxPath)
		if err != nil {
			return err
		}
		zlog.Info("export written", "path", xlsxPath, "tables", len(result.TableNames()))
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
