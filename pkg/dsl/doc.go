/*
Package dsl provides a fluent Go API for writing folio dialogs.

Most steps of a portfolio bot say something, ask something, or hand over to another
dialog. The builder turns those into domain.Step values so that only the steps with
real decisions need to be written by hand.

Example usage:

	contact := dsl.Dialog("/contact").
		Triggers("Contact").
		Confirm("Would you like to send me a message?").
		Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
			if yes, ok := args.Confirmed(); !ok || !yes {
				s.EndDialog(nil)
			}
			return nil
		}).
		Text("What is your email address?").
		Then(saveEmail).
		MustBuild()

A Builder collects several dialogs and compiles them into a registry:

	b := dsl.New()
	b.Add("/").Say("Welcome!").Begin("/contact")
	b.Add("/contact").Say("Drop me a line.")
	reg, err := b.Build()
*/
package dsl
