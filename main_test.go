package main

import (
	"strings"
	"testing"
)

func TestParseCLIFlagsPriority(t *testing.T) {
	t.Setenv("ANY_CACHE_CONFIG", "/tmp/env.toml")

	opts, err := parseCLIFlags([]string{})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/env.toml" {
		t.Fatalf("应优先使用环境变量，得到 %s", opts.configPath)
	}

	opts, err = parseCLIFlags([]string{"--config", "/tmp/flag.toml"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/flag.toml" {
		t.Fatalf("flag 应高于环境变量，得到 %s", opts.configPath)
	}
}

func TestParseCLIFlagsDefaultPath(t *testing.T) {
	t.Setenv("ANY_CACHE_CONFIG", "")

	opts, err := parseCLIFlags([]string{"-check-config"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "config.toml" {
		t.Fatalf("默认配置路径应为 config.toml，得到 %s", opts.configPath)
	}
	if !opts.checkOnly {
		t.Fatalf("check-config 标志未生效")
	}
}

func TestRunCheckConfigSuccess(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "valid.toml"), checkOnly: true})
	if code != 0 {
		t.Fatalf("期望退出码 0，得到 %d，stderr: %s", code, stdErrBuffer().String())
	}
}

func TestRunCheckConfigFailure(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "missing.toml"), checkOnly: true})
	if code == 0 {
		t.Fatalf("无效配置应返回非零退出码")
	}
}

func TestRunVersionOutput(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{showVersion: true})
	if code != 0 {
		t.Fatalf("version 模式应成功退出，得到 %d", code)
	}
	if !strings.Contains(stdOutBuffer().String(), "any-cache") {
		t.Fatalf("version 输出应包含 any-cache 标识")
	}
}

func TestBuildStoreByDriver(t *testing.T) {
	cfg, err := loadFixtureConfig(t, "valid.toml")
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	cfg.Global.StoragePath = t.TempDir()
	store, err := buildStore(cfg, testLogger())
	if err != nil {
		t.Fatalf("文件驱动构建失败: %v", err)
	}
	if store == nil {
		t.Fatalf("文件驱动应返回存储实例")
	}

	cfg.Global.Driver = "memory"
	store, err = buildStore(cfg, testLogger())
	if err != nil {
		t.Fatalf("内存驱动构建失败: %v", err)
	}
	if store == nil {
		t.Fatalf("内存驱动应返回存储实例")
	}
}
