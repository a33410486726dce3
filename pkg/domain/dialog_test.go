package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestArgs_AccessorsTolerateAbsence(t *testing.T) {
	var args domain.Args

	_, ok := args.ResponseText()
	assert.False(t, ok)
	_, ok = args.Confirmed()
	assert.False(t, ok)
	_, ok = args.ChoiceIndex()
	assert.False(t, ok)
	_, ok = args.Entity("answer")
	assert.False(t, ok)

	exhausted := domain.Args{Kind: domain.ArgsPrompt}
	assert.False(t, exhausted.Answered())
}

func TestArgs_PromptResponses(t *testing.T) {
	confirm := domain.Args{Kind: domain.ArgsPrompt, Response: &domain.PromptResponse{Kind: domain.PromptConfirm, Confirmed: true}}
	v, ok := confirm.Confirmed()
	assert.True(t, ok)
	assert.True(t, v)
	_, ok = confirm.ChoiceIndex()
	assert.False(t, ok, "a confirm answer is not a choice")

	choice := domain.Args{Kind: domain.ArgsPrompt, Response: &domain.PromptResponse{Kind: domain.PromptChoice, Index: 2, Text: "contact"}}
	idx, ok := choice.ChoiceIndex()
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
	text, _ := choice.ResponseText()
	assert.Equal(t, "contact", text)
}

func TestArgs_Entity(t *testing.T) {
	args := domain.Args{
		Kind: domain.ArgsBegin,
		Intent: &domain.IntentMatch{
			Intent:   "qna",
			Entities: []domain.Entity{{Type: "answer", Value: "42"}},
		},
	}
	e, ok := args.Entity("answer")
	assert.True(t, ok)
	assert.Equal(t, "42", e.Value)
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnTurn: func(context.Context, *domain.TurnEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnTurn:        func(context.Context, *domain.TurnEvent) { calls = append(calls, "b") },
		OnDialogBegin: func(context.Context, *domain.DialogEvent) { calls = append(calls, "begin") },
	}

	merged := a.Merge(b)
	merged.OnTurn(context.Background(), &domain.TurnEvent{})
	merged.OnDialogBegin(context.Background(), &domain.DialogEvent{})
	assert.Nil(t, merged.OnPrompt)
	assert.Equal(t, []string{"a", "b", "begin"}, calls)
}
