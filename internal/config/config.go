package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server    ServerConfig    `toml:"server"`
	Data      DataConfig      `toml:"data"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Palette   PaletteConfig   `toml:"palette"`
	Log       LogConfig       `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置（导出文件目录）
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// DashboardConfig 看板与聚合配置
type DashboardConfig struct {
	ReferenceYear     int `toml:"reference_year"`      // 时间序列图表使用的年份
	MaxUploadMB       int `toml:"max_upload_mb"`       // 上传文件大小上限
	DatasetTTLMinutes int `toml:"dataset_ttl_minutes"` // 内存中数据集保留时长
	MaxDatasets       int `toml:"max_datasets"`        // 内存中最多保留的数据集数量
}

// PaletteConfig 客户类型 → 颜色映射，交给前端渲染使用
type PaletteConfig struct {
	Totals   map[string]string `toml:"totals" json:"totals"`     // 全量汇总图（堆叠柱状、环形图）
	Series   map[string]string `toml:"series" json:"series"`     // 2025 时间序列类图表
	Fallback string            `toml:"fallback" json:"fallback"` // 未配置的客户类型
}

// LogConfig 日志配置
type LogConfig struct {
	Mode string `toml:"mode"` // dev / prod
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Dashboard: DashboardConfig{
			ReferenceYear:     2025,
			MaxUploadMB:       32,
			DatasetTTLMinutes: 120,
			MaxDatasets:       16,
		},
		Palette: PaletteConfig{
			Totals: map[string]string{
				"Retail Collector":  "#b38f00",
				"Gallery":           "#cca300",
				"Museum":            "#ffcc00",
				"Not Defined":       "#ffdb4d",
				"Wholesaler":        "#ffe680",
				"Interior Designer": "#fff5cc",
			},
			Series: map[string]string{
				"Gallery":           "#732626",
				"Interior Designer": "#ff1a1a",
				"Museum":            "#cc5200",
				"Not Defined":       "#0047b3",
				"Retail Collector":  "#ffff66",
				"Wholesaler":        "#2db300",
			},
			Fallback: "#9e9e9e",
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}

// Validate 校验配置
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Dashboard.ReferenceYear <= 0 {
		errs = append(errs, fmt.Errorf("dashboard.reference_year must be positive: %d", c.Dashboard.ReferenceYear))
	}
	if c.Dashboard.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("dashboard.max_upload_mb must be positive: %d", c.Dashboard.MaxUploadMB))
	}
	if c.Dashboard.MaxDatasets <= 0 {
		errs = append(errs, fmt.Errorf("dashboard.max_datasets must be positive: %d", c.Dashboard.MaxDatasets))
	}
	return errors.Join(errs...)
}

// ColorFor 取客户类型的颜色，未配置时返回 Fallback
func (p PaletteConfig) ColorFor(palette map[string]string, customerType string) string {
	if c, ok := palette[customerType]; ok && c != "" {
		return c
	}
	return p.Fallback
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 配置文件路径：ORDERDASH_CONFIG 优先，否则为可执行文件同目录下的 config.toml
func DefaultConfigPath() string {
	if v := strings.TrimSpace(os.Getenv("ORDERDASH_CONFIG")); v != "" {
		return v
	}
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从默认路径加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadConfigFrom(DefaultConfigPath())
}

// LoadConfigFrom 从指定路径加载配置；文件不存在时使用默认配置
func LoadConfigFrom(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, info, fmt.Errorf("read config %s: %w", configPath, err)
		}
	} else {
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse config %s: %w", configPath, err)
		}
	}

	// 环境变量覆盖
	if err := applyEnv(config); err != nil {
		return nil, info, err
	}

	if err := config.Validate(); err != nil {
		return nil, info, err
	}

	return config, info, nil
}

func applyEnv(config *AppConfig) error {
	if v := strings.TrimSpace(os.Getenv("ORDERDASH_REFERENCE_YEAR")); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ORDERDASH_REFERENCE_YEAR %q: %w", v, err)
		}
		config.Dashboard.ReferenceYear = year
	}
	if v := strings.TrimSpace(os.Getenv("ORDERDASH_LOG_MODE")); v != "" {
		config.Log.Mode = v
	}
	return nil
}

// SaveConfig 保存配置到指定路径
func SaveConfig(config *AppConfig, configPath string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}

// EnsureDataDir 确保数据目录及导出子目录存在
// 相对路径以可执行文件所在目录为基准
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(filepath.Join(dataDir, "exports"), 0755); err != nil {
		return "", err
	}

	return dataDir, nil
}
