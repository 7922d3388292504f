package main

import (
	"fmt"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/LouYuanbo1/productreviews/internal/infra/hostenv"
	"github.com/LouYuanbo1/productreviews/internal/observability"
	"github.com/spf13/cobra"
)

func newChromeVersionCmd(opts *rootOptions) *cobra.Command {
	return newChromeVersionCmdWith(opts, func(cfg *config.Config) hostenv.Resolver {
		return hostenv.InitResolver(observability.NewLogger(cfg.Logger))
	})
}

// newChromeVersionCmdWith resolver 可替换,便于测试
func newChromeVersionCmdWith(opts *rootOptions, newResolver func(*config.Config) hostenv.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "chrome-version",
		Short: "显示本机 Chrome 的主版本号",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			inst, ok := newResolver(cfg).Probe(cmd.Context())
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "未检测到本机 Chrome,将使用驱动默认版本")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chrome 主版本: %d (%s)\n", inst.Major, inst.Version)
			if inst.Bin != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "路径: %s\n", inst.Bin)
			}
			return nil
		},
	}
}
