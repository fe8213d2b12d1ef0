package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/futureCreator/patchgate/internal/agent"
	"github.com/futureCreator/patchgate/internal/assessment"
	"github.com/futureCreator/patchgate/internal/github"
	vlog "github.com/futureCreator/patchgate/internal/log"
	"github.com/futureCreator/patchgate/internal/output"
	"github.com/futureCreator/patchgate/internal/report"
)

type assessOptions struct {
	command string
	dir     string
}

func newAssessCmd() *cobra.Command {
	opts := &assessOptions{}
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Run the assessment agent and validate the patch it proposes",
		Long: `assess runs the configured agent command, decodes its result (a JSON
envelope of per-file patches or a bare diff), validates the combined patch
and publishes it for the pull request step.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssess(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.command, "agent", "", `Agent command to run ("mock" for the built-in fixture); overrides agent.command`)
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Working directory for the agent command")
	return cmd
}

func runAssess(cmd *cobra.Command, opts *assessOptions) error {
	sess, err := openSession(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.close()

	command := sess.cfg.Agent.Command
	if opts.command != "" {
		command = opts.command
	}
	dir := opts.dir
	if dir == "" {
		dir, _ = os.Getwd()
	}

	r := sess.startRun("assess", command)

	agentCtx := cmd.Context()
	if d := sess.cfg.AgentTimeout(); d > 0 {
		var cancel context.CancelFunc
		agentCtx, cancel = context.WithTimeout(agentCtx, d)
		defer cancel()
	}

	vlog.Info("running assessment agent", "command", command)
	out, err := agent.New(command, dir).Assess(agentCtx)
	if err != nil {
		failRun(r, err)
		return err
	}
	vlog.Debug("assessment finished", "duration", out.Duration, "bytes", len(out.Text))
	if r != nil {
		if err := r.WriteFile("agent-output.txt", out.Text); err != nil {
			vlog.Warn("failed to save agent output", "err", err)
		}
	}

	result, err := assessment.Parse(out.Text)
	if errors.Is(err, assessment.ErrInvalidEnvelope) {
		// Let the validator give the verdict on whatever the agent printed.
		vlog.Warn("agent output is not a valid assessment envelope", "err", err)
		result = &assessment.Result{
			Changes:    []assessment.Change{{Patch: out.Text}},
			HadChanges: true,
		}
	} else if err != nil {
		failRun(r, err)
		return err
	}
	if r != nil {
		r.Meta.Paths = result.Paths()
	}

	if !result.HadChanges || len(result.Changes) == 0 {
		vlog.Info("agent reported no changes")
		if r != nil {
			if err := r.NoChanges(); err != nil {
				vlog.Warn("failed to record run", "run", r.ID, "err", err)
			}
		}
		return sess.emit(output.Result{Summary: report.NoChanges()})
	}

	ctx, cancel := sess.sourceContext(cmd.Context())
	defer cancel()
	in := result.Input()
	v, err := sess.pipeline().ValidateAndNormalize(ctx, in)
	if err != nil {
		failRun(r, err)
		return err
	}
	logVerdict(v, "agent:"+command)
	recordRun(r, v)
	sess.printVerdict(v)

	res := output.Result{
		HadChanges: v.Valid,
		Reason:     string(v.Reason),
		Summary:    report.Summary(v),
	}
	if v.Valid {
		res.Patch = v.Patch.String()
		res.PRBody = result.PRBody
		res.PRTitle = github.Title(result.PRBody, result.Paths())
		if r != nil {
			res.Branch = github.BranchName(r.ID)
		}
	}
	if err := sess.emit(res); err != nil {
		return err
	}
	return verdictError(v.Reason, v.Diagnostic.Message)
}
