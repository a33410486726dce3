// Package mail provides ports.Mailer implementations: SendGrid, Amazon SES, plain
// SMTP and a logging stub for development.
//
// The domain.Mail From field is the address of the visitor who wrote the message.
// Providers only send from verified addresses, so it travels as Reply-To while the
// configured sender is used as From.
package mail
