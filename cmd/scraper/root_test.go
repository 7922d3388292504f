package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/LouYuanbo1/productreviews/internal/infra/hostenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFlagsOnlyOverridesChanged(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--query", "wireless mouse", "-n", "3", "--driver", "static"}))

	cfg, err := config.Load("")
	require.NoError(t, err)
	opts := &rootOptions{query: "wireless mouse", maxProducts: 3, driver: "static"}
	require.NoError(t, applyFlags(cmd, opts, cfg))

	assert.Equal(t, "wireless mouse", cfg.Scrape.Query)
	assert.Equal(t, 3, cfg.Scrape.MaxProducts)
	assert.Equal(t, config.DriverStatic, cfg.Browser.Driver)
	// 未传入的参数保持默认值
	assert.Equal(t, 2, cfg.Scrape.ReviewCount)
	assert.Equal(t, "product_reviews.csv", cfg.Output.File)
	assert.Equal(t, 1, cfg.Scrape.ReviewWorkers)
}

func TestApplyFlagsValidates(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--workers", "0"}))

	cfg, err := config.Load("")
	require.NoError(t, err)
	err = applyFlags(cmd, &rootOptions{workers: 0}, cfg)
	assert.ErrorContains(t, err, "scrape.review_workers")
}

func TestRootFlagsBindToOptions(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-q", "usb hub", "-r", "4", "-o", "hub.csv", "--metrics-addr", ":9090"}))

	for name, want := range map[string]string{
		"query":        "usb hub",
		"output":       "hub.csv",
		"metrics-addr": ":9090",
	} {
		got, err := cmd.Flags().GetString(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	n, err := cmd.Flags().GetInt("reviews")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

type stubResolver struct {
	inst hostenv.Installation
	ok   bool
}

func (s stubResolver) Probe(context.Context) (hostenv.Installation, bool) { return s.inst, s.ok }

func (s stubResolver) ChromeMajorVersion(context.Context) (int, bool) { return s.inst.Major, s.ok }

func TestChromeVersionCmd(t *testing.T) {
	tests := []struct {
		name     string
		resolver stubResolver
		want     []string
	}{
		{
			name:     "found",
			resolver: stubResolver{inst: hostenv.Installation{Major: 126, Version: "126.0.6478.126", Bin: "/usr/bin/google-chrome"}, ok: true},
			want:     []string{"Chrome 主版本: 126 (126.0.6478.126)", "路径: /usr/bin/google-chrome"},
		},
		{
			name:     "missing",
			resolver: stubResolver{},
			want:     []string{"未检测到本机 Chrome"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newChromeVersionCmdWith(&rootOptions{}, func(*config.Config) hostenv.Resolver { return tt.resolver })
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs(nil)
			require.NoError(t, cmd.ExecuteContext(context.Background()))
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}
