// Package portfolio is the dialog set of the portfolio bot: a welcome menu,
// topic dialogs, a contact flow that emails the owner, and the fallbacks.
package portfolio

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/adapters/recognizer"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/dsl"
	"github.com/aretw0/folio/pkg/middleware"
	"github.com/aretw0/folio/pkg/ports"
)

// Dialog ids.
const (
	RootID          = "/"
	UnknownID       = "/unknown"
	QnAID           = "/qna"
	GreetingID      = "/greeting"
	HelpID          = "/help"
	ExperienceID    = "/experience"
	WorkSmarterID   = "/work-smarter"
	ContactID       = "/contact"
	ContactEmailID  = "/contact/email"
	ImageReceivedID = middleware.ImageReceivedDialogID
)

// Intents produced by the embedded rules.
const (
	IntentDefault     = "Default"
	IntentGreeting    = "Greeting"
	IntentSmallTalk   = "SmallTalk"
	IntentHelp        = "Help"
	IntentExperience  = "Experience"
	IntentWorkSmarter = "WorkSmarter"
	IntentContact     = "Contact"
)

// PaceDelay separates consecutive paced messages.
const PaceDelay = 1500 * time.Millisecond

// Profile is what the bot tells about its owner.
type Profile struct {
	Welcome     string
	Intro       string
	Twitter     string
	Experience  []string
	WorkSmarter []string
}

// DefaultProfile is used when no profile is configured.
func DefaultProfile() Profile {
	return Profile{
		Welcome: "Hey! Welcome to my website. Fancy a chat?",
		Intro: "I build software for a living and I like to talk about digital transformation " +
			"and new technology such as artificial intelligence. Lately I am also busy finding " +
			"smarter ways to get through the day.",
		Twitter: "https://twitter.com/folio",
		Experience: []string{
			"I started out as a developer building web shops.",
			"After that I spent years as a consultant helping teams move to the cloud.",
			"These days I work on conversational interfaces, like the one you are talking to.",
		},
		WorkSmarter: []string{
			"Working smarter starts with doing fewer things at once.",
			"I plan my week on Sunday evening and keep mornings free of meetings.",
			"And I let bots like this one answer the questions I get every day.",
		},
	}
}

// Deps are the collaborators of the dialogs.
type Deps struct {
	Profile Profile
	// Mailer delivers contact requests to the owner.
	Mailer ports.Mailer
	Logger *slog.Logger
}

// Menu is the choice offered by the welcome dialog. Values are the postbacks
// sent by the suggested actions.
var Menu = []domain.Choice{
	{Label: "What is your work experience?", Value: "experience"},
	{Label: "Tell me more about working smarter!", Value: "work-smarter"},
	{Label: "I would like to get in touch.", Value: "contact"},
	{Label: "What can you do?", Value: "help"},
}

var menuTargets = []string{ExperienceID, WorkSmarterID, ContactID, HelpID}

// Suggestions are the actions offered when the bot did not understand.
func Suggestions() []domain.Action {
	actions := make([]domain.Action, 0, 3)
	for _, c := range Menu[:3] {
		actions = append(actions, domain.Action{Label: c.Label, Value: c.Value})
	}
	return actions
}

// Dialogs returns the dialog set. The welcome dialog is first so it wins
// ties with any later dialog sharing its triggers.
func Dialogs(deps Deps) []domain.Definition {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	p := deps.Profile

	root := dsl.Dialog(RootID).
		Describe("Welcome and topic menu").
		Triggers(IntentDefault, IntentGreeting).
		Links(menuTargets...).
		Say(p.Welcome).
		Choice(p.Intro, Menu...).
		Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
			idx, ok := args.ChoiceIndex()
			if !ok {
				s.SendText("No problem. Just ask me anything.")
				s.EndDialog(nil)
				return nil
			}
			s.BeginDialog(menuTargets[idx], nil)
			return nil
		}).
		MustBuild()

	unknown := dsl.Dialog(UnknownID).
		Describe("Fallback for anything not understood").
		Say("Oops, I don't think I quite understand you yet...", Suggestions()...).
		MustBuild()

	qna := dsl.Dialog(QnAID).
		Describe("Answers from the knowledge base").
		Triggers(recognizer.QnAIntent).
		Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
			answer, ok := args.Entity(recognizer.AnswerEntity)
			if !ok || answer.Value == "" {
				s.SendText("Good question. I don't have an answer for that yet.", Suggestions()...)
			} else {
				s.SendText(answer.Value)
			}
			s.EndDialog(nil)
			return nil
		}).
		MustBuild()

	greeting := dsl.Dialog(GreetingID).
		Describe("Small talk").
		Triggers(IntentSmallTalk).
		Say("Hi! I'm doing great, thanks for asking.").
		MustBuild()

	help := dsl.Dialog(HelpID).
		Describe("What the bot can do").
		Triggers(IntentHelp).
		Say("I can tell you about my work experience and how I try to work smarter, "+
			"or pass a message on to me by email. Type \"reset\" to start over.", Suggestions()...).
		MustBuild()

	return []domain.Definition{
		root,
		unknown,
		qna,
		greeting,
		help,
		story(ExperienceID, IntentExperience, "Work experience", p.Experience),
		story(WorkSmarterID, IntentWorkSmarter, "Working smarter", p.WorkSmarter),
		contact(deps),
		contactEmail(),
		imageReceived(deps.Logger),
	}
}

// story tells lines one after the other: the first right away, the rest each
// after a typing indicator shown for PaceDelay.
func story(id, intent, description string, lines []string) domain.Definition {
	return dsl.Dialog(id).
		Describe(description).
		Triggers(intent).
		Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
			for i, line := range lines {
				if i == 0 {
					s.SendText(line)
					continue
				}
				s.SendPaced(0, domain.TypingMessage())
				msg := domain.TextMessage(line)
				if i == len(lines)-1 {
					msg.SuggestedActions = Suggestions()
				}
				s.SendPaced(PaceDelay, msg)
			}
			s.EndDialog(nil)
			return nil
		}).
		MustBuild()
}

func imageReceived(logger *slog.Logger) domain.Definition {
	return dsl.Dialog(ImageReceivedID).
		Describe("Reaction to an uploaded image").
		Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
			att, ok := args.Value.(domain.Attachment)
			if !ok {
				if err := domain.Decode(args.Value, &att); err != nil {
					logger.Warn("Unreadable attachment", "conversation_id", s.ConversationID(), "err", err)
				}
			}
			if att.Name != "" {
				s.SendText("Nice, " + att.Name + "! I can't look at pictures yet, but thanks for sharing.")
			} else {
				s.SendText("Nice picture! I can't look at pictures yet, but thanks for sharing.")
			}
			s.EndDialog(nil)
			return nil
		}).
		MustBuild()
}
