/*
Package domain contains the core domain models of the folio dialog engine.

It defines the conversation state, the dialog stack frames, the dialog definitions
(waterfalls of steps) and the wire shapes exchanged with transports. This package is
kept free of I/O and persistence, following Hexagonal Architecture principles.

# Key Entities

  - ConversationState: Per-conversation snapshot (user data, dialog stack, version stamp).
  - DialogFrame: One active dialog invocation on the stack (step index, private data, pending prompt).
  - Definition: A registered dialog: ordered steps, intent triggers and static links.
  - Session: The handle a step receives to send messages and drive the stack.
  - Turn / Message: Inbound utterance and outbound activity.
*/
package domain
