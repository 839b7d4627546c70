// xtenantctl 是多租户 grain key 与 provider 配置的命令行工具。
//
// 用法:
//
//	xtenantctl <命令> [命令参数]
//
// 命令:
//
//	encode         把租户与租户内 key 编码为 grain key
//	decode         把 grain key 拆分为租户与租户内 key
//	check-config   校验配置文件中某个 provider 的多租户选项
//	help           显示帮助信息
//
// 退出码:
//
//	0: 命令执行成功
//	1: 命令执行失败（配置无法加载或校验不通过）
//	2: 参数错误（缺少参数、参数冲突、未知命令等）
//
// 示例:
//
//	xtenantctl encode --tenant acme order-1          # acme|order-1
//	xtenantctl encode --null order-1                 # order-1
//	xtenantctl decode 'acme|order-1'
//	xtenantctl check-config -p orders app.yaml
//	xtenantctl check-config -p orders --watch app.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:           "xtenantctl",
		Usage:          "多租户 grain key 与 provider 配置工具",
		Version:        fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Commands:       createCommands(),
		DefaultCommand: "help",
		Authors: []any{
			"XMultitenant Team",
		},
		// 退出码统一由 run() 映射，不让 urfave/cli 直接 os.Exit。
		ExitErrHandler: func(_ context.Context, cmd *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(errWriter(cmd), err)
			}
		},
		Description: `xtenantctl 用于排查多租户 grain 的寻址与存储配置。

grain key 格式为 <租户段>|<租户内 key>。租户段中的 '|' 写作 '||'，
以 '|' 或 '~' 开头的租户内 key 前加 '~'。null tenant 没有租户段，
其 key 中的 '|' 同样写作 '||'。`,
	}
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	return exitCode(createApp().Run(ctx, os.Args), os.Stderr)
}

// exitCode 把命令错误映射为退出码，必要时向 w 输出错误信息。
func exitCode(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(w, "参数错误: %v\n", usageErr)
		return 2
	}
	// 未知 flag 等由 cli 产生的错误已由 ExitErrHandler 或 flag 解析器输出。
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return 2
	}
	fmt.Fprintf(w, "错误: %v\n", err)
	return 1
}
