package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/scam-shield/backend/internal/fault"
	"github.com/zhouzirui/scam-shield/backend/internal/render"
	"github.com/zhouzirui/scam-shield/backend/internal/service/imagerisk"
)

const analyzeLongDesc string = `Analyze a local screenshot for signs of fraud.

The file goes through the same guard as uploads to the API: at most
UPLOAD_MAX_BYTES (4MB by default) and it must be an image.

Examples:
  scamshield analyze sms.png
  scamshield analyze --html --prompt "Это настоящий сайт банка?" page.jpg`

const analyzeShortDesc string = "Analyze a screenshot file"

type analyzeCommander struct {
	prompt string
	html   bool
}

func newAnalyzeCmd() *cobra.Command {
	cmder := &analyzeCommander{}

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: analyzeShortDesc,
		Long:  analyzeLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			b, err := resolveBackends(cmd.Context(), cfg.AI)
			if err != nil {
				return err
			}
			opts := []imagerisk.Option{
				imagerisk.WithMaxBytes(cfg.Upload.MaxBytes),
				imagerisk.WithLogger(logger),
			}
			if cmder.prompt != "" {
				opts = append(opts, imagerisk.WithInstruction(cmder.prompt))
			}
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), imagerisk.NewService(b.evaluator, opts...), args[0])
		},
	}
	cmd.Flags().StringVar(&cmder.prompt, "prompt", "", "Instruction sent with the image")
	cmd.Flags().BoolVar(&cmder.html, "html", false, "Render the verdict as HTML")
	return cmd
}

func (c *analyzeCommander) run(ctx context.Context, w io.Writer, svc *imagerisk.Service, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := svc.Guard().CheckSize(info.Size()); err != nil {
		return errors.New(imagerisk.OversizeMessage)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	verdict, err := svc.Analyze(ctx, data, "")
	switch {
	case fault.IsTransport(err):
		return fmt.Errorf("%s: %w", imagerisk.FailureMessage, err)
	case errors.Is(err, fault.ErrImageTooLarge):
		return errors.New(imagerisk.OversizeMessage)
	case err != nil:
		return err
	}

	out := verdict.Markdown
	if c.html {
		if out, err = render.HTML(verdict.Markdown); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
