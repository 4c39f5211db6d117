package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/fetchmesh"
	"github.com/hupe1980/fetchmesh/config"
	"github.com/hupe1980/fetchmesh/core"
	"github.com/hupe1980/fetchmesh/engine"
)

var configFlag = &cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a YAML config file"}

var getCmd = &cli.Command{
	Name:      "get",
	Usage:     "fetch one or more URLs through the extension chain",
	ArgsUsage: "URL...",
	Flags: []cli.Flag{
		configFlag,
		&cli.StringSliceFlag{Name: "header", Aliases: []string{"H"}, Usage: "extra request header as Key=Value"},
		&cli.BoolFlag{Name: "navigate", Usage: "send the requests as navigations"},
		&cli.BoolFlag{Name: "body", Usage: "print response bodies"},
		&cli.IntFlag{Name: "concurrency", Value: 4, Usage: "maximum parallel fetches"},
	},
	Action: func(c *cli.Context) error {
		urls := c.Args().Slice()
		if len(urls) == 0 {
			return errors.New("at least one URL is required")
		}

		cfg, err := loadConfig(c.String("config"))
		if err != nil {
			return err
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range config.ParseHeaders(c.StringSlice("header")) {
			cfg.Headers[k] = v
		}

		fm, err := fetchmesh.NewFromConfig(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var mu sync.Mutex
		failed := 0

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(c.Int("concurrency"), 1))
		for _, u := range urls {
			u := u
			g.Go(func() error {
				line, body, err := fetchOne(gctx, fm, u, c.Bool("navigate"), c.Bool("body"))

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					_, _ = fmt.Fprintln(os.Stdout, color.Red.Sprintf("✗ %s %s", u, err))
					return nil
				}
				_, _ = fmt.Fprintln(os.Stdout, line)
				if body != "" {
					_, _ = fmt.Fprintln(os.Stdout, body)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d fetches failed", failed, len(urls))
		}
		return nil
	},
}

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run a reverse proxy that forwards requests through the extension chain",
	Flags: []cli.Flag{
		configFlag,
		&cli.StringFlag{Name: "upstream", Aliases: []string{"u"}, Usage: "upstream base URL"},
		&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "listen address"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c.String("config"))
		if err != nil {
			return err
		}
		if v := c.String("upstream"); v != "" {
			cfg.Proxy.Upstream = v
		}
		if v := c.String("addr"); v != "" {
			cfg.Proxy.Addr = v
		}
		if cfg.Proxy.Upstream == "" {
			return errors.New("an upstream is required (--upstream or proxy.upstream)")
		}

		fm, err := fetchmesh.NewFromConfig(cfg)
		if err != nil {
			return err
		}
		handler, err := fm.Handler(cfg.Proxy.Upstream)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.Proxy.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			fm.Logger().Info("Proxy listening", "addr", cfg.Proxy.Addr, "upstream", cfg.Proxy.Upstream)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.ConfigFromEnv()
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

func fetchOne(ctx context.Context, fm *fetchmesh.FetchMesh, rawURL string, navigate, withBody bool) (string, string, error) {
	start := time.Now()

	params := engine.FetchParams{URL: rawURL}
	if navigate {
		req, err := core.NewRequest(ctx, rawURL)
		if err != nil {
			return "", "", err
		}
		core.MarkNavigation(req)
		params.Request = req
	}

	resp, err := fm.Fetch(ctx, params)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var body string
	if withBody {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", "", err
		}
		body = strings.TrimRight(string(b), "\n")
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	status := strconv.Itoa(resp.StatusCode)
	switch {
	case resp.StatusCode >= 500:
		status = color.Red.Sprint(status)
	case resp.StatusCode >= 400:
		status = color.Yellow.Sprint(status)
	default:
		status = color.Green.Sprint(status)
	}
	return fmt.Sprintf("%s %s (%s)", status, rawURL, time.Since(start).Round(time.Millisecond)), body, nil
}

func main() {
	app := cli.NewApp()
	app.Name = "fetchmesh"
	app.Usage = "fetch through a pluggable extension chain"
	app.HideVersion = true
	app.Commands = []*cli.Command{getCmd, serveCmd}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
		os.Exit(1)
	}
}
