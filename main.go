package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/any-cache/internal/cache"
	"github.com/any-hub/any-cache/internal/config"
	"github.com/any-hub/any-cache/internal/logging"
	"github.com/any-hub/any-cache/internal/server"
	"github.com/any-hub/any-cache/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["driver"] = cfg.Global.Driver
		fields["storage_path"] = cfg.Global.StoragePath
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// CLI 启动遵循"配置 → 存储 → 写入器 → Fiber server"顺序，
	// 保证所有请求共享同一份存储实例与默认 TTL 策略。
	store, err := buildStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化缓存存储失败: %v\n", err)
		return 1
	}
	writer := cache.NewWriter(store, cfg.Global.CacheTTL.DurationValue())

	fields := logging.BaseFields("startup", opts.configPath)
	fields["driver"] = cfg.Global.Driver
	fields["listen_port"] = cfg.Global.ListenPort
	fields["storage_path"] = cfg.Global.StoragePath
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, store, writer, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// buildStore 按配置驱动构建文件型或内存型存储。
func buildStore(cfg *config.Config, logger *logrus.Logger) (cache.Store, error) {
	if !cfg.Global.UsesFileDriver() {
		return cache.NewMemoryStore(cfg.Global.KeyPrefix), nil
	}
	return cache.NewFileStore(cache.FileOptions{
		Root:     cfg.Global.StoragePath,
		LockRoot: cfg.Global.LockPath,
		Prefix:   cfg.Global.KeyPrefix,
		Logger:   logger,
	})
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("any-cache", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 ANY_CACHE_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("ANY_CACHE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

func startHTTPServer(cfg *config.Config, store cache.Store, writer cache.Writer, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:   logger,
		Store:    store,
		Writer:   writer,
		Driver:   cfg.Global.Driver,
		LockWait: cfg.Global.LockWait.DurationValue(),
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
