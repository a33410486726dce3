/*
Package folio is a dialog orchestration engine for scripted, intent-driven chat bots.

It tracks conversation state per user, routes each utterance to a named dialog by
recognized intent or by explicit navigation ("/contact"), runs multi-step waterfall
dialogs with prompts that wait for the next turn, and lets dialogs nest: a step can
begin a child dialog and receive its result when it ends.

# Concept

A dialog is a Definition: an absolute id, a list of Steps and the intent names
(Triggers) that start it. Steps receive a domain.Session to send messages, ask
prompts and drive the dialog stack. The Bot persists the stack through a
ports.StateStore after every successful turn, so a conversation resumes on any
replica, in any process.

Transports (HTTP, WebSocket, MCP, terminal), recognizers, mailers and stores are
adapters under pkg/adapters; the engine core never performs I/O of its own.

# Usage

	bot, err := folio.New(folio.DefaultConfig(),
		folio.WithDialogs(
			domain.Definition{
				ID:       "/",
				Triggers: []string{"Greeting"},
				Steps: []domain.Step{
					func(ctx context.Context, s domain.Session, args domain.Args) error {
						s.PromptConfirm("Want to see my work?")
						return nil
					},
					func(ctx context.Context, s domain.Session, args domain.Args) error {
						if yes, ok := args.Confirmed(); ok && yes {
							s.BeginDialog("/experience", nil)
						}
						return nil
					},
				},
			},
			// ... "/unknown", "/experience"
		),
		folio.WithRecognizer(rec),
	)

	res, err := bot.HandleTurn(ctx, domain.Turn{ConversationID: "c1", Text: "hello"})
	for _, m := range res.Messages {
		fmt.Println(m.Text)
	}

Paced messages (SendPaced) are not part of the result's Messages: they are handed to a
ports.Scheduler (see pkg/pacing) once the turn has been saved.
*/
package folio
