package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/folio/pkg/domain"
)

// begin pushes id on the stack and runs it until the turn suspends or unwinds.
func (e *Engine) begin(ctx context.Context, tc *turnContext, id string, args domain.Args) error {
	if err := e.push(ctx, tc, id); err != nil {
		return err
	}
	return e.run(ctx, tc, args)
}

func (e *Engine) push(ctx context.Context, tc *turnContext, id string) error {
	def, err := e.registry.ResolveByID(id)
	if err != nil {
		return err
	}
	if tc.state.Depth() >= e.config.MaxStackDepth {
		return fmt.Errorf("%w: depth %d reached while beginning %s", domain.ErrStackOverflow, e.config.MaxStackDepth, def.ID)
	}
	tc.state.PushFrame(def.ID)
	e.emitDialogBegin(ctx, tc, def.ID)
	return nil
}

// run drives the frame on top of the stack. It loops rather than recursing:
// each control decision either suspends the turn or reshapes the stack and
// continues with the new top.
func (e *Engine) run(ctx context.Context, tc *turnContext, args domain.Args) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		idx := tc.state.Depth() - 1
		if idx < 0 {
			return nil
		}

		frame := &tc.state.DialogStack[idx]
		def, err := e.registry.ResolveByID(frame.DialogID)
		if err != nil {
			return err
		}

		// Running past the last step ends the dialog without a result.
		if frame.StepIndex >= len(def.Steps) {
			var resume bool
			args, resume = e.unwind(ctx, tc, domain.Args{Kind: domain.ArgsResult}, domain.EndCompleted)
			if !resume {
				return nil
			}
			continue
		}

		tc.steps++
		if tc.steps > maxStepsPerTurn {
			return fmt.Errorf("%w: %d steps, last in %s", domain.ErrStepLimit, maxStepsPerTurn, def.ID)
		}

		ctrl, err := e.execStep(ctx, tc, def, idx, args)
		if err != nil {
			return err
		}

		frame = &tc.state.DialogStack[idx]
		switch ctrl.kind {
		case ctrlNone, ctrlNext:
			frame.StepIndex++
			args = domain.Args{Kind: domain.ArgsNext, Value: ctrl.value}

		case ctrlPrompt:
			frame.PendingPrompt = ctrl.prompt
			tc.sendPrompt(ctrl.prompt, false)
			e.emitPrompt(ctx, tc, def.ID, ctrl.prompt)
			return nil

		case ctrlBegin:
			if err := e.push(ctx, tc, ctrl.dialogID); err != nil {
				return err
			}
			args = domain.Args{Kind: domain.ArgsBegin, Value: ctrl.value}

		case ctrlReplace:
			if _, err := e.registry.ResolveByID(ctrl.dialogID); err != nil {
				return err
			}
			replaced, _ := tc.state.PopFrame()
			e.emitDialogEnd(ctx, tc, replaced.DialogID, domain.EndReplaced)
			if err := e.push(ctx, tc, ctrl.dialogID); err != nil {
				return err
			}
			args = domain.Args{Kind: domain.ArgsBegin, Value: ctrl.value}

		case ctrlEnd:
			var resume bool
			args, resume = e.unwind(ctx, tc, domain.Args{Kind: domain.ArgsResult, Value: ctrl.value}, domain.EndCompleted)
			if !resume {
				return nil
			}

		case ctrlCancel:
			var resume bool
			args, resume = e.unwind(ctx, tc, domain.Args{Kind: domain.ArgsCancelled}, domain.EndCancelled)
			if !resume {
				return nil
			}
		}
	}
}

// unwind pops the top frame and decides whether the parent resumes.
// A parent still waiting on its own prompt is not advanced; the prompt is asked again.
func (e *Engine) unwind(ctx context.Context, tc *turnContext, resumeArgs domain.Args, reason domain.EndReason) (domain.Args, bool) {
	frame, ok := tc.state.PopFrame()
	if !ok {
		return resumeArgs, false
	}
	e.emitDialogEnd(ctx, tc, frame.DialogID, reason)

	parent := tc.state.Top()
	switch {
	case parent == nil, parent.Resting:
		return resumeArgs, false
	case parent.PendingPrompt != nil:
		tc.sendPrompt(parent.PendingPrompt, false)
		return resumeArgs, false
	}

	parent.StepIndex++
	return resumeArgs, true
}

// execStep runs one step and returns the control decision it recorded.
// Panics are converted into step errors.
func (e *Engine) execStep(ctx context.Context, tc *turnContext, def domain.Definition, idx int, args domain.Args) (ctrl control, err error) {
	step := tc.state.DialogStack[idx].StepIndex

	defer func() {
		if r := recover(); r != nil {
			err = &domain.StepError{DialogID: def.ID, StepIndex: step, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	e.logger.Debug("Running step",
		"conversation_id", tc.turn.ConversationID,
		"dialog_id", def.ID,
		"step", step,
		"args", args.Kind.String(),
	)

	s := &stepSession{tc: tc, frame: idx}
	if err := def.Steps[step](ctx, s, args); err != nil {
		return control{}, &domain.StepError{DialogID: def.ID, StepIndex: step, Err: err}
	}
	return s.ctrl, nil
}
