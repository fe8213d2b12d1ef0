package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/futureCreator/patchgate/internal/config"
	vlog "github.com/futureCreator/patchgate/internal/log"
	"github.com/futureCreator/patchgate/internal/output"
	"github.com/futureCreator/patchgate/internal/patch"
	"github.com/futureCreator/patchgate/internal/report"
	"github.com/futureCreator/patchgate/internal/source"
)

type checkOptions struct {
	sel   source.Selection
	probe bool
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [-]",
		Short: "Validate and normalize a patch",
		Long: `check runs one patch through fence stripping, line normalization and the
structural checks. Pass "-" to read the patch from stdin.

Exit status is 0 when the patch is accepted or rejected for its content,
and 2 when the patch source could not be fetched.`,
		Example: `  patchgate check --url https://example.com/fix.diff
  patchgate check --file agent-output.txt
  git diff | patchgate check -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if args[0] != "-" {
					return fmt.Errorf("unexpected argument %q (use - for stdin)", args[0])
				}
				opts.sel.Stdin = true
			}
			opts.sel.HasInline = cmd.Flags().Changed("inline")
			return runCheck(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.sel.URL, "url", "", "Fetch the patch from an HTTP(S) URL")
	cmd.Flags().StringVarP(&opts.sel.File, "file", "f", "", "Read the patch from a local file")
	cmd.Flags().StringVar(&opts.sel.Inline, "inline", "", "Patch text given directly")
	cmd.Flags().BoolVar(&opts.probe, "probe", false, "Only confirm the URL is reachable (pass-through mode)")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *checkOptions) error {
	in, err := source.Resolve(opts.sel, cmd.InOrStdin())
	if err != nil {
		return err
	}

	sess, err := openSession(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.close()

	r := sess.startRun("check", in.Describe())
	ctx, cancel := sess.sourceContext(cmd.Context())
	defer cancel()

	passThrough := opts.probe || sess.cfg.Source.Mode == config.ModePassThrough
	if passThrough && in.Kind == patch.KindURL {
		res, err := sess.pipeline().Probe(ctx, in)
		if err != nil {
			failRun(r, err)
			return err
		}
		if r != nil {
			if err := r.RecordProbe(res); err != nil {
				vlog.Warn("failed to record run", "run", r.ID, "err", err)
			}
		}
		vlog.Info("patch URL probed", "url", res.URL, "reachable", res.Reachable, "status", res.Diagnostic.StatusCode)
		fmt.Fprintln(sess.stderr, report.Probe(res))
		if err := sess.emit(output.Result{
			HadChanges: res.Reachable,
			PatchURL:   res.URL,
			Reason:     string(res.Reason),
			Summary:    report.Probe(res),
		}); err != nil {
			return err
		}
		return verdictError(res.Reason, res.Diagnostic.Message)
	}

	v, err := sess.pipeline().ValidateAndNormalize(ctx, in)
	if err != nil {
		failRun(r, err)
		return err
	}
	logVerdict(v, in.Describe())
	recordRun(r, v)
	sess.printVerdict(v)

	res := output.Result{
		HadChanges: v.Valid,
		Reason:     string(v.Reason),
		Summary:    report.Summary(v),
	}
	if v.Valid {
		res.Patch = v.Patch.String()
	}
	if err := sess.emit(res); err != nil {
		return err
	}
	return verdictError(v.Reason, v.Diagnostic.Message)
}
