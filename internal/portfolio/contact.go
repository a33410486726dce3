package portfolio

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/folio/pkg/adapters/mail"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/dsl"
)

// MailSubject is the subject of contact mails.
const MailSubject = "Mail from the bot"

// maxEmailAttempts bounds how often an invalid address is asked again.
const maxEmailAttempts = 2

const (
	goodbye      = "No worries. If I can do anything for you, you know where to find me."
	tweetGoodbye = "Okidoki. I'll keep an eye out for your tweet. If I can do anything for you, you know where to find me."
)

// contact offers Twitter or email. Email asks for the address in a child
// dialog, then for the message, and mails it to the owner.
func contact(deps Deps) domain.Definition {
	logger := deps.Logger
	return dsl.Dialog(ContactID).
		Describe("Get in touch by Twitter or email").
		Triggers(IntentContact).
		Links(ContactEmailID).
		Confirm(fmt.Sprintf("You can reach me on Twitter at %s. Would you rather send me an email?", deps.Profile.Twitter),
			domain.WithRetryText("Please answer yes or no: would you rather send me an email?")).
		Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
			yes, ok := args.Confirmed()
			switch {
			case !ok:
				s.SendText(goodbye)
				s.EndDialog(nil)
			case !yes:
				s.SendText(tweetGoodbye)
				s.EndDialog(nil)
			default:
				s.BeginDialog(ContactEmailID, nil)
			}
			return nil
		}).
		Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
			email, _ := args.Value.(string)
			if email == "" {
				s.SendText(goodbye)
				s.EndDialog(nil)
				return nil
			}
			s.DialogData()["email"] = email
			s.PromptText("Got it. Type your message and I'll make sure the email gets sent.")
			return nil
		}).
		Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
			text, ok := args.ResponseText()
			if !ok {
				s.SendText(goodbye)
				s.EndDialog(nil)
				return nil
			}
			email, _ := s.DialogData()["email"].(string)

			if deps.Mailer == nil {
				logger.Warn("Contact mail dropped: no mailer configured", "conversation_id", s.ConversationID())
				s.SendText("Sorry, I can't send email right now. Twitter works too!")
				s.EndDialog(nil)
				return nil
			}
			err := deps.Mailer.Send(ctx, domain.Mail{
				From:    email,
				Subject: MailSubject,
				Body:    text,
			})
			if err != nil {
				// Mail failures never fail the turn.
				logger.Error("Contact mail failed", "conversation_id", s.ConversationID(), "err", err)
				s.SendText("Sorry, something went wrong sending your message. Please try again later.")
				s.EndDialog(nil)
				return nil
			}
			s.UserData()["email"] = email
			s.SendText("Your message has been sent, you'll hear from me soon!")
			s.EndDialog(email)
			return nil
		}).
		MustBuild()
}

// contactEmail asks for an email address and ends with it, or with nil when
// no valid address was given. It is replaced by itself to ask again; the
// begin value is the attempt number.
func contactEmail() domain.Definition {
	return dsl.Dialog(ContactEmailID).
		Describe("Ask for a valid email address").
		Links(ContactEmailID).
		Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
			attempt := 1
			if args.Value != nil {
				_ = domain.Decode(args.Value, &attempt)
			}
			s.DialogData()["attempt"] = attempt

			known, _ := s.UserData()["email"].(string)
			if attempt == 1 && mail.ValidAddress(known) {
				s.DialogData()["known"] = known
				s.PromptConfirm(fmt.Sprintf("Shall I use %s as your email address?", known))
				return nil
			}
			s.Next(nil)
			return nil
		}).
		Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
			if yes, ok := args.Confirmed(); ok && yes {
				s.EndDialog(s.DialogData()["known"])
				return nil
			}
			s.PromptText("What is your email address?")
			return nil
		}).
		Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
			text, ok := args.ResponseText()
			if !ok {
				s.EndDialog(nil)
				return nil
			}
			addr := strings.TrimSpace(text)
			if mail.ValidAddress(addr) {
				s.EndDialog(addr)
				return nil
			}

			var attempt int
			_ = domain.Decode(s.DialogData()["attempt"], &attempt)
			if attempt >= maxEmailAttempts {
				s.SendText("That still doesn't look like an email address.")
				s.EndDialog(nil)
				return nil
			}
			s.SendText("Hmm, that doesn't look like an email address.")
			s.ReplaceDialog(ContactEmailID, attempt+1)
			return nil
		}).
		MustBuild()
}
