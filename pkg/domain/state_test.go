package domain_test

import (
	"testing"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationState_PushPop(t *testing.T) {
	s := domain.NewConversationState("c1", "u1")
	assert.Nil(t, s.Top())

	s.PushFrame("/")
	s.PushFrame("/contact")
	require.Equal(t, 2, s.Depth())
	assert.Equal(t, "/contact", s.Top().DialogID)
	assert.NotNil(t, s.Top().DialogData)

	popped, ok := s.PopFrame()
	require.True(t, ok)
	assert.Equal(t, "/contact", popped.DialogID)
	assert.Equal(t, "/", s.Top().DialogID)

	s.ResetStack()
	assert.Equal(t, 0, s.Depth())
	_, ok = s.PopFrame()
	assert.False(t, ok)
}

func TestConversationState_CloneIsolation(t *testing.T) {
	s := domain.NewConversationState("c1", "u1")
	s.UserData["profile"] = map[string]any{"email": "a@b.c"}
	f := s.PushFrame("/contact")
	f.DialogData["tags"] = []any{"x"}
	f.PendingPrompt = domain.NewPendingPrompt(domain.PromptChoice, "pick", []domain.Choice{{Label: "a"}}, 2)

	c := s.Clone()
	c.UserData["profile"].(map[string]any)["email"] = "changed"
	c.Top().DialogData["tags"].([]any)[0] = "y"
	c.Top().PendingPrompt.Retries = 2
	c.Top().PendingPrompt.Choices[0].Label = "b"
	c.PushFrame("/help")

	assert.Equal(t, "a@b.c", s.UserData["profile"].(map[string]any)["email"])
	assert.Equal(t, "x", s.Top().DialogData["tags"].([]any)[0])
	assert.Equal(t, 0, s.Top().PendingPrompt.Retries)
	assert.Equal(t, "a", s.Top().PendingPrompt.Choices[0].Label)
	assert.Equal(t, 1, s.Depth())
}

func TestNormalizeDialogID(t *testing.T) {
	cases := map[string]string{
		"unknown":    "/unknown",
		"/unknown":   "/unknown",
		"/contact/":  "/contact",
		"//qna":      "/qna",
		"":           "/",
		"/":          "/",
		" greeting ": "/greeting",
	}
	for in, want := range cases {
		assert.Equal(t, want, domain.NormalizeDialogID(in), "input %q", in)
	}
}
