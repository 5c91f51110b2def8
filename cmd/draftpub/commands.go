package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/eringen/draftpub"
	"github.com/eringen/draftpub/payload"
	"github.com/eringen/draftpub/wechat"
)

func newServeCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the publishing API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logCfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			logger := newLogger(logCfg)
			app := draftpub.New(cfg, draftpub.WithLogger(logger))
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- app.Start() }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.PublishTimeout)
			defer cancel()
			return app.Shutdown(shutdownCtx)
		},
	}
}

// gatewayClient builds the WeChat client for one-off commands.
func gatewayClient(cfg draftpub.Config, logger *charmlog.Logger) (*wechat.Client, error) {
	if err := cfg.WeChat.Validate(); err != nil {
		return nil, fmt.Errorf("wechat credentials: %w", err)
	}
	return wechat.NewClient(cfg.WeChat, wechat.WithLogger(logger.WithPrefix("wechat"))), nil
}

// payloadFromFile turns a markdown file into a {title, content} payload
// titled by its first level-one heading or its file name. Any other file
// is sent as a raw request body.
func payloadFromFile(path string, data []byte) payload.Raw {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
	default:
		return payload.Decode(data)
	}
	content := string(data)
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, line := range strings.Split(content, "\n") {
		if h, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			title = strings.TrimSpace(h)
			break
		}
	}
	return payload.Mapping(map[string]any{"title": title, "content": content})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newPublishCommand(envFile *string) *cobra.Command {
	var submit bool
	cmd := &cobra.Command{
		Use:   "publish <file>",
		Short: "Create a draft from a markdown file or a JSON payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			logger := newLogger(logCfg)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			client, err := gatewayClient(cfg, logger)
			if err != nil {
				return err
			}
			store, err := draftpub.NewStore(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			p := draftpub.NewPipeline(cfg, client,
				draftpub.WithRecorder(store),
				draftpub.WithPipelineLogger(logger),
			)
			ctx := cmd.Context()
			res := p.Run(ctx, payloadFromFile(args[0], data))
			if err := writeJSON(cmd.OutOrStdout(), res.Body()); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("publish failed with status %d", res.Status)
			}
			if !submit {
				return nil
			}

			publishID, err := client.SubmitPublish(ctx, res.MediaID)
			if err != nil {
				return err
			}
			if err := store.MarkSubmitted(res.MediaID, publishID); err != nil {
				logger.Warn("mark submitted", "err", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted, publish id %s\n", publishID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&submit, "submit", false, "submit the draft for publishing after creating it")
	return cmd
}

func newSubmitCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <media_id>",
		Short: "Submit an existing draft for publishing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			logger := newLogger(logCfg)
			client, err := gatewayClient(cfg, logger)
			if err != nil {
				return err
			}
			publishID, err := client.SubmitPublish(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if store, err := draftpub.NewStore(cfg.DatabasePath); err == nil {
				if err := store.MarkSubmitted(args[0], publishID); err != nil && !draftpub.IsNotFound(err) {
					logger.Warn("mark submitted", "err", err)
				}
				store.Close()
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{"media_id": args[0], "publish_id": publishID})
		},
	}
}

func newStatusCommand(envFile *string) *cobra.Command {
	var (
		wait     bool
		interval time.Duration
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "status <publish_id>",
		Short: "Show the state of a publish job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			logger := newLogger(logCfg)
			client, err := gatewayClient(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			for {
				st, err := client.PublishStatus(ctx, args[0])
				if err != nil {
					return err
				}
				if !wait || st.State.Done() {
					return writeJSON(cmd.OutOrStdout(), draftpub.PublishReport{
						PublishID:    args[0],
						Status:       int(st.State),
						Description:  st.State.String(),
						Done:         st.State.Done(),
						ArticleLinks: st.ArticleLinks(),
					})
				}
				logger.Info("still publishing", "publish_id", args[0])
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(interval):
				}
			}
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the job reaches a final state")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "poll interval with --wait")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "give up after this long")
	return cmd
}
