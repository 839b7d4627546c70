package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xmultitenant/pkg/config/xconf"
	"github.com/omeyang/xmultitenant/pkg/tenant/xprovider"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

// exitError 表示命令已完成输出，只需要设置退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 表示参数错误，退出码为 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func createCommands() []*cli.Command {
	return []*cli.Command{
		createEncodeCommand(),
		createDecodeCommand(),
		createCheckConfigCommand(),
	}
}

func createEncodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Aliases:   []string{"e"},
		Usage:     "把租户与租户内 key 编码为 grain key",
		ArgsUsage: "<key>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "tenant",
				Aliases: []string{"t"},
				Usage:   "租户 ID，允许空串",
			},
			&cli.BoolFlag{
				Name:  "null",
				Usage: "使用 null tenant",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return cmdEncode(outWriter(cmd), cmd.IsSet("tenant"), cmd.String("tenant"), cmd.Bool("null"), cmd.Args().Slice())
		},
	}
}

func createDecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Aliases:   []string{"d"},
		Usage:     "把 grain key 拆分为租户与租户内 key",
		ArgsUsage: "<grain-key>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			return cmdDecode(outWriter(cmd), cmd.Args().Slice())
		},
	}
}

func createCheckConfigCommand() *cli.Command {
	return &cli.Command{
		Name:      "check-config",
		Aliases:   []string{"c"},
		Usage:     "校验 storage.<provider> 段的多租户选项",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "provider 名称",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "持续监视文件，每次变更后重新校验",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdCheckConfig(ctx, outWriter(cmd), cmd.String("provider"), cmd.Bool("watch"), cmd.Args().Slice())
		},
	}
}

func cmdEncode(w io.Writer, hasTenant bool, tenant string, null bool, args []string) error {
	if len(args) != 1 {
		return usageErrorf("encode 需要且仅需要一个 key 参数")
	}
	if hasTenant == null {
		return usageErrorf("--tenant 与 --null 必须且只能指定一个")
	}
	id := xtenantkey.Null()
	if hasTenant {
		id = xtenantkey.New(tenant)
	}
	_, err := fmt.Fprintln(w, xtenantkey.Encode(id, args[0]))
	return err
}

func cmdDecode(w io.Writer, args []string) error {
	if len(args) != 1 {
		return usageErrorf("decode 需要且仅需要一个 grain key 参数")
	}
	id, key := xtenantkey.Decode(args[0])
	tenant := id.String()
	if v, ok := id.Value(); ok {
		tenant = fmt.Sprintf("%q", v)
	}
	_, err := fmt.Fprintf(w, "tenant: %s\nkey:    %q\n", tenant, key)
	return err
}

func cmdCheckConfig(ctx context.Context, w io.Writer, provider string, watch bool, args []string) error {
	if len(args) != 1 {
		return usageErrorf("check-config 需要且仅需要一个配置文件参数")
	}
	if provider == "" {
		return usageErrorf("缺少 --provider")
	}
	cfg, err := xconf.New(args[0])
	if err != nil {
		return err
	}
	if err := reportOptions(w, cfg, provider); err != nil && !watch {
		return &exitError{code: 1}
	}
	if !watch {
		return nil
	}
	watcher, err := xconf.Watch(cfg, func(cfg xconf.Config, err error) {
		if err != nil {
			fmt.Fprintf(w, "reload failed: %v\n", err)
			return
		}
		_ = reportOptions(w, cfg, provider)
	})
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

// reportOptions 输出校验结果，校验失败时返回对应错误。
func reportOptions(w io.Writer, cfg xconf.Config, provider string) error {
	opts, err := xprovider.LoadOptions(cfg, provider)
	if err != nil {
		fmt.Fprintf(w, "invalid: %v\n", err)
		return err
	}
	fmt.Fprintf(w, "ok: provider=%s init_timeout=%s null_tenant_label=%q\n",
		provider, opts.InitTimeout, opts.NullTenantLabel)
	return nil
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

// setupSignalHandler 第一次信号取消 ctx，第二次信号强制退出。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
